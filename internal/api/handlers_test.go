package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"campusRecruit/internal/database"
	"campusRecruit/internal/recruit"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// 队列客户端指向不可达地址：入队失败只记日志，不影响接口语义。
func deadAsynqClient() *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{Addr: "127.0.0.1:1"})
}

// identityMiddleware 模拟 AuthMiddleware 的上下文注入。
func identityMiddleware(userID uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("role", role)
		c.Set("approvalStatus", database.ApprovalApproved)
		c.Set("mustChangePassword", false)
		c.Next()
	}
}

func seedCandidate(t *testing.T, db *gorm.DB, username, degree, branch string, cgpa float64) *database.User {
	t.Helper()
	user := database.User{
		Username:       username,
		Email:          username + "@test.local",
		PasswordHash:   "x",
		Role:           database.RoleCandidate,
		ApprovalStatus: database.ApprovalApproved,
		Profile: &database.CandidateProfile{
			Degree: degree,
			Branch: branch,
			CGPA:   cgpa,
		},
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed candidate: %v", err)
	}
	return &user
}

func seedJob(t *testing.T, db *gorm.DB, degree string, branches []string, rounds int, closedOn time.Time) *database.Job {
	t.Helper()
	encoded, err := recruit.EncodeBranches(branches)
	if err != nil {
		t.Fatalf("encode branches: %v", err)
	}
	job := database.Job{
		CompanyName:         "test co",
		JobDescription:      "test",
		CTC:                 12,
		ApplicableDegree:    degree,
		ApplicableBranches:  encoded,
		TotalRoundCount:     rounds,
		ApplicationClosedOn: closedOn,
	}
	if err := db.Create(&job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return &job
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func newJobRouter(t *testing.T, db *gorm.DB, userID uint, role string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler := NewJobHandler(recruit.NewEngine(db, false), deadAsynqClient(), quietLogger())
	router := gin.New()
	router.Use(identityMiddleware(userID, role))
	router.POST("/v1/jobs", handler.CreateJob)
	router.GET("/v1/jobs", handler.ListJobs)
	router.POST("/v1/jobs/:id/apply", handler.Apply)
	router.GET("/v1/jobs/:id/applicants", handler.ListApplicants)
	router.POST("/v1/jobs/:id/advance-round", handler.AdvanceRound)
	return router
}

func TestCreateJobRejectsPastDeadline(t *testing.T) {
	db := newTestDB(t)
	router := newJobRouter(t, db, 1, database.RolePlacementOfficer)

	rec := doJSON(t, router, http.MethodPost, "/v1/jobs", gin.H{
		"company_name":          "acme",
		"job_description":       "engineer",
		"ctc":                   10.5,
		"applicable_degree":     "bachelor of technology",
		"applicable_branches":   []string{"computer science"},
		"total_round_count":     3,
		"application_closed_on": time.Now().Add(-time.Hour).Format(time.RFC3339),
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
}

func TestApplyEndpoint(t *testing.T) {
	db := newTestDB(t)
	candidate := seedCandidate(t, db, "alice", "btech", "cse", 8.1)
	job := seedJob(t, db, "btech", []string{"cse"}, 2, time.Now().Add(time.Hour))

	router := newJobRouter(t, db, candidate.ID, database.RoleCandidate)
	path := fmt.Sprintf("/v1/jobs/%d/apply", job.ID)

	rec := doJSON(t, router, http.MethodPost, path, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first apply status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, path, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second apply status = %d, want %d", rec.Code, http.StatusConflict)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/jobs/9999/apply", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing job status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestListJobsFiltersEligibility(t *testing.T) {
	db := newTestDB(t)
	candidate := seedCandidate(t, db, "bob", "btech", "cse", 7.0)
	match := seedJob(t, db, "btech", []string{"cse", "ece"}, 2, time.Now().Add(time.Hour))
	seedJob(t, db, "mtech", []string{"cse"}, 2, time.Now().Add(time.Hour))
	seedJob(t, db, "btech", []string{"ece"}, 2, time.Now().Add(time.Hour))

	router := newJobRouter(t, db, candidate.ID, database.RoleCandidate)
	rec := doJSON(t, router, http.MethodGet, "/v1/jobs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Jobs []jobResponse `json:"jobs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Jobs) != 1 || resp.Jobs[0].ID != match.ID {
		t.Fatalf("jobs = %+v, want only job %d", resp.Jobs, match.ID)
	}
}

func TestAdvanceRoundEndpointDeletesJobWithoutSurvivors(t *testing.T) {
	db := newTestDB(t)
	officer := seedCandidate(t, db, "officer", "btech", "cse", 0)
	job := seedJob(t, db, "btech", []string{"cse"}, 2, time.Now().Add(-time.Hour))

	router := newJobRouter(t, db, officer.ID, database.RolePlacementOfficer)
	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/jobs/%d/advance-round", job.ID), gin.H{
		"selected_applicant_ids": []uint{},
		"message":                "congrats",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusConflict, rec.Body.String())
	}

	var count int64
	if err := db.Model(&database.Job{}).Where("id = ?", job.ID).Count(&count).Error; err != nil {
		t.Fatalf("count jobs: %v", err)
	}
	if count != 0 {
		t.Fatalf("job rows = %d, want 0 after empty advance", count)
	}
}

func TestSetApprovalStatusEndpoint(t *testing.T) {
	db := newTestDB(t)
	admin := database.User{
		Username:       "root",
		Email:          "root@test.local",
		PasswordHash:   "x",
		Role:           database.RoleAdmin,
		ApprovalStatus: database.ApprovalApproved,
	}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	officer := database.User{
		Username:       "officer",
		Email:          "officer@test.local",
		PasswordHash:   "x",
		Role:           database.RolePlacementOfficer,
		ApprovalStatus: database.ApprovalPending,
	}
	if err := db.Create(&officer).Error; err != nil {
		t.Fatalf("seed officer: %v", err)
	}

	gin.SetMode(gin.TestMode)
	handler := NewAdminHandler(recruit.NewEngine(db, false), quietLogger())
	router := gin.New()
	router.Use(identityMiddleware(admin.ID, database.RoleAdmin))
	router.GET("/v1/admin/pending-accounts", handler.ListPendingAccounts)
	router.PATCH("/v1/admin/accounts/:id/approval", handler.SetApprovalStatus)

	rec := doJSON(t, router, http.MethodGet, "/v1/admin/pending-accounts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "officer") {
		t.Fatalf("pending list missing officer: %s", rec.Body.String())
	}

	path := fmt.Sprintf("/v1/admin/accounts/%d/approval", officer.ID)
	rec = doJSON(t, router, http.MethodPatch, path, gin.H{"status": "approved"})
	if rec.Code != http.StatusOK {
		t.Fatalf("approve status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPatch, path, gin.H{"status": "maybe"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid status code = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/v1/admin/accounts/%d/approval", admin.ID), gin.H{"status": "refused"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("self status code = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestQuestionEndpoints(t *testing.T) {
	db := newTestDB(t)
	candidate := seedCandidate(t, db, "carol", "btech", "cse", 9.0)
	officerID := candidate.ID + 100

	gin.SetMode(gin.TestMode)
	engine := recruit.NewEngine(db, false)

	candidateRouter := gin.New()
	candidateRouter.Use(identityMiddleware(candidate.ID, database.RoleCandidate))
	candidateHandler := NewQuestionHandler(engine, quietLogger())
	candidateRouter.POST("/v1/questions", candidateHandler.PostQuestion)
	candidateRouter.GET("/v1/questions", candidateHandler.ListQuestions)

	officerRouter := gin.New()
	officerRouter.Use(identityMiddleware(officerID, database.RolePlacementOfficer))
	officerHandler := NewQuestionHandler(engine, quietLogger())
	officerRouter.GET("/v1/questions", officerHandler.ListQuestions)
	officerRouter.PATCH("/v1/questions/:id/answer", officerHandler.AnswerQuestion)

	rec := doJSON(t, candidateRouter, http.MethodPost, "/v1/questions", gin.H{"question": "when is the drive?"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("post question status = %d: %s", rec.Code, rec.Body.String())
	}
	var posted questionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &posted); err != nil {
		t.Fatalf("decode posted question: %v", err)
	}

	// 负责人视图返回待回答队列。
	rec = doJSON(t, officerRouter, http.MethodGet, "/v1/questions", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "when is the drive?") {
		t.Fatalf("pending view = %d %s", rec.Code, rec.Body.String())
	}

	answerPath := fmt.Sprintf("/v1/questions/%d/answer", posted.ID)
	rec = doJSON(t, officerRouter, http.MethodPatch, answerPath, gin.H{"answer": "next monday"})
	if rec.Code != http.StatusOK {
		t.Fatalf("answer status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, officerRouter, http.MethodPatch, answerPath, gin.H{"answer": "again"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("re-answer status = %d, want %d", rec.Code, http.StatusConflict)
	}

	// 候选人视图看到已回答的问题。
	rec = doJSON(t, candidateRouter, http.MethodGet, "/v1/questions", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "next monday") {
		t.Fatalf("asked view = %d %s", rec.Code, rec.Body.String())
	}
}
