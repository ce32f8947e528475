package recruit

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"campusRecruit/internal/database"
)

// testNow 是测试里统一的 "当前时间"，所有开放/截止判断都相对它构造。
var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// 每个测试独立的共享缓存内存库，避免连接池拿到不同的 :memory: 实例。
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestEngine(t *testing.T, db *gorm.DB) *Engine {
	t.Helper()
	e := NewEngine(db, false)
	e.now = func() time.Time { return testNow }
	return e
}

func seedCandidate(t *testing.T, db *gorm.DB, username, degree, branch string) database.User {
	t.Helper()
	user := database.User{
		Username:       username,
		Email:          username + "@example.edu",
		PasswordHash:   "irrelevant",
		FirstName:      "Test",
		Role:           database.RoleCandidate,
		ApprovalStatus: database.ApprovalApproved,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	profile := database.CandidateProfile{
		UserID: user.ID,
		Degree: degree,
		Branch: branch,
		CGPA:   8.5,
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("seed profile %s: %v", username, err)
	}
	return user
}

func seedJob(t *testing.T, db *gorm.DB, degree string, branches []string, rounds int, closedOn time.Time) database.Job {
	t.Helper()
	encoded, err := EncodeBranches(branches)
	if err != nil {
		t.Fatalf("encode branches: %v", err)
	}
	job := database.Job{
		CompanyName:         "watchGuard",
		JobDescription:      "sde role",
		CTC:                 9.4,
		ApplicableDegree:    degree,
		ApplicableBranches:  encoded,
		TotalRoundCount:     rounds,
		ApplicationClosedOn: closedOn,
	}
	if err := db.Create(&job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return job
}

func seedApplication(t *testing.T, db *gorm.DB, jobID, applicantID uint) database.JobApplication {
	t.Helper()
	app := database.JobApplication{JobID: jobID, ApplicantID: applicantID}
	if err := db.Create(&app).Error; err != nil {
		t.Fatalf("seed application job=%d applicant=%d: %v", jobID, applicantID, err)
	}
	return app
}

func countRows(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var count int64
	tx := db.Model(model)
	if query != "" {
		tx = tx.Where(query, args...)
	}
	if err := tx.Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}
