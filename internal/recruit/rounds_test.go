package recruit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"campusRecruit/internal/database"
	"campusRecruit/internal/errcode"
)

func TestAdvanceRoundSetAlgebra(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	e := newTestEngine(t, db)

	officer := seedCandidate(t, db, "officer", testDegree, testBranch)
	job := seedJob(t, db, testDegree, []string{testBranch}, 3, testNow.Add(-time.Hour))

	var ids []uint
	for _, name := range []string{"c1", "c2", "c3", "c4"} {
		u := seedCandidate(t, db, name, testDegree, testBranch)
		seedApplication(t, db, job.ID, u.ID)
		ids = append(ids, u.ID)
	}

	ghostID := ids[3] + 100 // 从未报名的人
	retained := []uint{ids[1], ids[3], ghostID}

	result, err := e.AdvanceRound(ctx, officer.ID, job.ID, retained, "round 2 starts monday")
	if err != nil {
		t.Fatalf("advance round: %v", err)
	}

	if len(result.SelectedApplicantIDs) != 2 ||
		result.SelectedApplicantIDs[0] != ids[1] ||
		result.SelectedApplicantIDs[1] != ids[3] {
		t.Fatalf("expected selection {%d, %d}, got %v", ids[1], ids[3], result.SelectedApplicantIDs)
	}
	if result.JobStatus != JobStatusInProgress {
		t.Fatalf("expected in_progress, got %s", result.JobStatus)
	}
	if result.Warning == "" || result.WarningCode != errcode.ResourceMissing {
		t.Fatalf("expected warning for ghost applicant, got %q (code %d)", result.Warning, result.WarningCode)
	}

	// 被淘汰者的申请立即删除，晋级者保留。
	if got := countRows(t, db, &database.JobApplication{}, "job_id = ?", job.ID); got != 2 {
		t.Fatalf("expected 2 surviving applications, got %d", got)
	}
	for _, pruned := range []uint{ids[0], ids[2]} {
		if got := countRows(t, db, &database.JobApplication{}, "applicant_id = ?", pruned); got != 0 {
			t.Fatalf("applicant %d should have been pruned", pruned)
		}
	}

	// 轮次计数已推进。
	var updated database.Job
	if err := db.First(&updated, job.ID).Error; err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if updated.CurrentRound != 1 {
		t.Fatalf("expected current_round 1, got %d", updated.CurrentRound)
	}

	// 群发落库：一条消息 + 每个晋级者一条接收记录。
	if got := countRows(t, db, &database.MassMessage{}, "job_id = ?", job.ID); got != 1 {
		t.Fatalf("expected 1 mass message, got %d", got)
	}
	if got := countRows(t, db, &database.MassMessageReceiver{}, "mass_message_id = ?", result.MassMessageID); got != 2 {
		t.Fatalf("expected 2 receiver rows, got %d", got)
	}
}

func TestAdvanceRoundZeroSurvivors(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	e := newTestEngine(t, db)

	officer := seedCandidate(t, db, "officer", testDegree, testBranch)
	job := seedJob(t, db, testDegree, []string{testBranch}, 2, testNow.Add(-time.Hour))
	for _, name := range []string{"c1", "c2"} {
		u := seedCandidate(t, db, name, testDegree, testBranch)
		seedApplication(t, db, job.ID, u.ID)
	}

	_, err := e.AdvanceRound(ctx, officer.ID, job.ID, nil, "nobody made it")
	if !errors.Is(err, ErrNoQualifiedApplicants) {
		t.Fatalf("expected ErrNoQualifiedApplicants, got %v", err)
	}

	// 错误与副作用同时成立：岗位及其申请都已不存在。
	if got := countRows(t, db, &database.Job{}, "id = ?", job.ID); got != 0 {
		t.Fatal("job must be deleted after zero-survivor round")
	}
	if got := countRows(t, db, &database.JobApplication{}, "job_id = ?", job.ID); got != 0 {
		t.Fatal("applications must be pruned after zero-survivor round")
	}
	if got := countRows(t, db, &database.MassMessage{}, "job_id = ?", job.ID); got != 0 {
		t.Fatal("no mass message may be sent when nobody advances")
	}
}

func TestAdvanceRoundExhaustion(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	e := newTestEngine(t, db)

	officer := seedCandidate(t, db, "officer", testDegree, testBranch)
	// 两轮岗位已推进过一轮：这一次是最后一轮，推进后必须完赛而不是
	// 留在 current_round == total_round_count 的非法状态。
	job := seedJob(t, db, testDegree, []string{testBranch}, 2, testNow.Add(-time.Hour))
	if err := db.Model(&database.Job{}).Where("id = ?", job.ID).Update("current_round", 1).Error; err != nil {
		t.Fatalf("set current round: %v", err)
	}

	winner := seedCandidate(t, db, "winner", testDegree, testBranch)
	seedApplication(t, db, job.ID, winner.ID)

	result, err := e.AdvanceRound(ctx, officer.ID, job.ID, []uint{winner.ID}, "congratulations")
	if err != nil {
		t.Fatalf("advance final round: %v", err)
	}
	if result.JobStatus != JobStatusCompleted {
		t.Fatalf("expected completed, got %s", result.JobStatus)
	}

	if got := countRows(t, db, &database.Job{}, "id = ?", job.ID); got != 0 {
		t.Fatal("completed job must be deleted")
	}
	if got := countRows(t, db, &database.JobApplication{}, "job_id = ?", job.ID); got != 0 {
		t.Fatal("completed job must not keep applications")
	}
	// 完赛消息仍然送达晋级者。
	if got := countRows(t, db, &database.MassMessageReceiver{}, "receiver_id = ?", winner.ID); got != 1 {
		t.Fatal("winner must still receive the final mass message")
	}
}

func TestAdvanceRoundGuards(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	e := newTestEngine(t, db)
	officer := seedCandidate(t, db, "officer", testDegree, testBranch)

	if _, err := e.AdvanceRound(ctx, officer.ID, 404, nil, "msg"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}

	open := seedJob(t, db, testDegree, []string{testBranch}, 2, testNow.Add(time.Hour))
	_, err := e.AdvanceRound(ctx, officer.ID, open.ID, []uint{1}, "msg")
	if !errors.Is(err, ErrJobStillOpen) {
		t.Fatalf("expected ErrJobStillOpen, got %v", err)
	}
	if !strings.Contains(err.Error(), "still accepting") {
		t.Fatalf("error should explain the policy, got %q", err)
	}
}
