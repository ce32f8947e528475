package recruit

import (
	"context"
	"errors"
	"testing"

	"campusRecruit/internal/database"
)

func TestSetApprovalStatus(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	e := newTestEngine(t, db)

	admin := database.User{Username: "root", Email: "root@example.edu", Role: database.RoleAdmin, ApprovalStatus: database.ApprovalApproved}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	target := seedCandidate(t, db, "alice", testDegree, testBranch)
	if err := db.Model(&database.User{}).Where("id = ?", target.ID).Update("approval_status", database.ApprovalPending).Error; err != nil {
		t.Fatalf("reset target status: %v", err)
	}

	result, err := e.SetApprovalStatus(ctx, admin.ID, target.ID, database.ApprovalApproved)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if result.ID != target.ID || result.Username != "alice" || result.ApprovalStatus != database.ApprovalApproved {
		t.Fatalf("unexpected projection %+v", result)
	}

	// 状态之间可以任意流转。
	if _, err := e.SetApprovalStatus(ctx, admin.ID, target.ID, database.ApprovalRefused); err != nil {
		t.Fatalf("approved -> refused: %v", err)
	}
	if _, err := e.SetApprovalStatus(ctx, admin.ID, target.ID, database.ApprovalPending); err != nil {
		t.Fatalf("refused -> pending: %v", err)
	}

	if _, err := e.SetApprovalStatus(ctx, admin.ID, 404, database.ApprovalApproved); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := e.SetApprovalStatus(ctx, admin.ID, target.ID, "banned"); !errors.Is(err, ErrInvalidApprovalStatus) {
		t.Fatalf("expected ErrInvalidApprovalStatus, got %v", err)
	}
}

func TestSetApprovalStatusSelfGuard(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	e := newTestEngine(t, db)

	admin := database.User{Username: "root", Email: "root@example.edu", Role: database.RoleAdmin, ApprovalStatus: database.ApprovalApproved}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	// 不管当前状态如何，自改永远被拒。
	for _, status := range []string{database.ApprovalApproved, database.ApprovalRefused, database.ApprovalPending} {
		if _, err := e.SetApprovalStatus(ctx, admin.ID, admin.ID, status); !errors.Is(err, ErrSelfStatusSet) {
			t.Fatalf("self set to %s: expected ErrSelfStatusSet, got %v", status, err)
		}
	}

	var stored database.User
	if err := db.First(&stored, admin.ID).Error; err != nil {
		t.Fatalf("reload admin: %v", err)
	}
	if stored.ApprovalStatus != database.ApprovalApproved {
		t.Fatalf("self set must not mutate status, got %s", stored.ApprovalStatus)
	}
}

func TestListPendingAccounts(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	e := newTestEngine(t, db)

	for _, name := range []string{"first", "second", "third"} {
		u := database.User{Username: name, Email: name + "@example.edu", Role: database.RoleCandidate, ApprovalStatus: database.ApprovalPending}
		if err := db.Create(&u).Error; err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
	approved := database.User{Username: "done", Email: "done@example.edu", Role: database.RoleCandidate, ApprovalStatus: database.ApprovalApproved}
	if err := db.Create(&approved).Error; err != nil {
		t.Fatalf("seed approved: %v", err)
	}

	pending, err := e.ListPendingAccounts(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending accounts, got %d", len(pending))
	}
	for _, u := range pending {
		if u.ApprovalStatus != database.ApprovalPending {
			t.Fatalf("non-pending account %s in pending list", u.Username)
		}
	}

	page, err := e.ListPendingAccounts(ctx, 1, 1)
	if err != nil {
		t.Fatalf("list pending page: %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("expected 1 account on page, got %d", len(page))
	}
}
