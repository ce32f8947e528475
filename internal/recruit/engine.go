package recruit

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Engine 实现招聘流程的全部状态规则：报名资格、轮次推进、群发、
// 问答与账号审批。引擎假定调用方已完成鉴权与入参校验，
// 只接收 ID / 字符串 / 时间等已验证的原语。
type Engine struct {
	db *gorm.DB

	// allowReanswer 控制已回答的问题能否被覆盖。观察到的原始行为
	// 未定义二次回答，这里把它做成显式配置：默认关闭，二次回答报冲突。
	allowReanswer bool

	// now 可注入，测试里用来固定时钟。
	now func() time.Time
}

// NewEngine 构造流程引擎。
func NewEngine(db *gorm.DB, allowReanswer bool) *Engine {
	return &Engine{
		db:            db,
		allowReanswer: allowReanswer,
		now:           time.Now,
	}
}

// lockForUpdate 在支持行锁的数据库上对查询加 FOR UPDATE。
// 报名与轮次推进会并发触碰同一条岗位记录，"岗位是否开放" 的判断
// 和后续写入必须在同一临界区内完成。
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
