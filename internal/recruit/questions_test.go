package recruit

import (
	"context"
	"errors"
	"testing"
	"time"

	"campusRecruit/internal/database"
)

func TestPostAndListQuestions(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	e := newTestEngine(t, db)
	asker := seedCandidate(t, db, "alice", testDegree, testBranch)

	q, err := e.PostQuestion(ctx, asker.ID, "when do offers go out?")
	if err != nil {
		t.Fatalf("post question: %v", err)
	}
	if q.ResponseStatus != QuestionPending {
		t.Fatalf("new question must be pending, got %s", q.ResponseStatus)
	}
	if q.AnswererID != nil || q.Answer != nil || q.AnsweredAt != nil {
		t.Fatal("new question must have no answer fields set")
	}

	asked, err := e.ListAskedQuestions(ctx, asker.ID, 0, 10)
	if err != nil {
		t.Fatalf("list asked: %v", err)
	}
	if len(asked) != 1 || asked[0].ID != q.ID {
		t.Fatalf("expected the posted question back, got %+v", asked)
	}

	pending, err := e.ListPendingQuestions(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending question, got %d", len(pending))
	}
}

func TestAnswerQuestion(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	e := newTestEngine(t, db)
	asker := seedCandidate(t, db, "alice", testDegree, testBranch)
	officer := seedCandidate(t, db, "officer", testDegree, testBranch)

	q, err := e.PostQuestion(ctx, asker.ID, "is the deadline extended?")
	if err != nil {
		t.Fatalf("post question: %v", err)
	}

	answered, err := e.AnswerQuestion(ctx, q.ID, officer.ID, "no, it stands")
	if err != nil {
		t.Fatalf("answer question: %v", err)
	}
	if answered.ResponseStatus != QuestionAnswered {
		t.Fatalf("expected answered status, got %s", answered.ResponseStatus)
	}
	if answered.AnswererID == nil || *answered.AnswererID != officer.ID {
		t.Fatalf("expected answerer %d, got %v", officer.ID, answered.AnswererID)
	}
	if answered.AnsweredAt == nil || !answered.AnsweredAt.Equal(testNow) {
		t.Fatalf("expected answered_at %v, got %v", testNow, answered.AnsweredAt)
	}
	if answered.Answer == nil || *answered.Answer != "no, it stands" {
		t.Fatalf("unexpected answer %v", answered.Answer)
	}

	if _, err := e.AnswerQuestion(ctx, 404, officer.ID, "x"); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}

	// 默认配置下二次回答是冲突。
	if _, err := e.AnswerQuestion(ctx, q.ID, officer.ID, "changed my mind"); !errors.Is(err, ErrQuestionAlreadyAnswered) {
		t.Fatalf("expected ErrQuestionAlreadyAnswered, got %v", err)
	}

	var stored database.Question
	if err := db.First(&stored, q.ID).Error; err != nil {
		t.Fatalf("reload question: %v", err)
	}
	if stored.Answer == nil || *stored.Answer != "no, it stands" {
		t.Fatal("rejected re-answer must not overwrite the original answer")
	}
}

func TestAnswerQuestionReanswerAllowed(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	e := NewEngine(db, true)
	e.now = func() time.Time { return testNow }

	asker := seedCandidate(t, db, "alice", testDegree, testBranch)
	officer := seedCandidate(t, db, "officer", testDegree, testBranch)

	q, err := e.PostQuestion(ctx, asker.ID, "campus or remote?")
	if err != nil {
		t.Fatalf("post question: %v", err)
	}
	if _, err := e.AnswerQuestion(ctx, q.ID, officer.ID, "campus"); err != nil {
		t.Fatalf("first answer: %v", err)
	}

	updated, err := e.AnswerQuestion(ctx, q.ID, officer.ID, "remote after round 1")
	if err != nil {
		t.Fatalf("re-answer with override enabled: %v", err)
	}
	if updated.Answer == nil || *updated.Answer != "remote after round 1" {
		t.Fatalf("expected overwritten answer, got %v", updated.Answer)
	}
}
