package worker

import "time"

// RosterTemplateString 是报名名册 PDF 的 Go HTML 模板。
const RosterTemplateString = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body {
            margin: 24px;
            font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif;
            font-size: 11pt;
            color: #222;
        }
        h1 {
            font-size: 16pt;
            margin-bottom: 2px;
        }
        .meta {
            color: #555;
            font-size: 9pt;
            margin-bottom: 18px;
        }
        table {
            width: 100%;
            border-collapse: collapse;
        }
        th, td {
            border: 1px solid #aaa;
            padding: 6px 8px;
            text-align: left;
        }
        th {
            background: #f0f0f0;
        }
        tr {
            page-break-inside: avoid;
        }
    </style>
</head>
<body>
    <h1>{{.CompanyName}} 报名名册</h1>
    <div class="meta">
        岗位 #{{.JobID}} ·
        学历要求: {{.Degree}} ·
        当前轮次: {{.CurrentRound}}/{{.TotalRounds}} ·
        生成时间: {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}
    </div>
    <table>
        <thead>
            <tr>
                <th>#</th>
                <th>姓名</th>
                <th>邮箱</th>
                <th>专业</th>
                <th>CGPA</th>
            </tr>
        </thead>
        <tbody>
            {{range .Applicants}}
            <tr>
                <td>{{.Seq}}</td>
                <td>{{.Username}}</td>
                <td>{{.Email}}</td>
                <td>{{.Branch}}</td>
                <td>{{printf "%.2f" .CGPA}}</td>
            </tr>
            {{else}}
            <tr><td colspan="5">暂无申请人</td></tr>
            {{end}}
        </tbody>
    </table>
</body>
</html>
`

type rosterApplicant struct {
	Seq      int
	Username string
	Email    string
	Branch   string
	CGPA     float64
}

type rosterTemplateData struct {
	JobID        uint
	CompanyName  string
	Degree       string
	CurrentRound int
	TotalRounds  int
	GeneratedAt  time.Time
	Applicants   []rosterApplicant
}
