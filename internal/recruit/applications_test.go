package recruit

import (
	"context"
	"errors"
	"testing"
	"time"

	"campusRecruit/internal/database"
)

const (
	testDegree = "bachelor of technology"
	testBranch = "computer science and engineering"
)

func TestApply(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db := newTestDB(t)
		e := newTestEngine(t, db)
		candidate := seedCandidate(t, db, "alice", testDegree, testBranch)
		job := seedJob(t, db, testDegree, []string{testBranch}, 3, testNow.Add(time.Hour))

		app, err := e.Apply(ctx, job.ID, candidate.ID)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if app.JobID != job.ID || app.ApplicantID != candidate.ID {
			t.Fatalf("unexpected application %+v", app)
		}
		if got := countRows(t, db, &database.JobApplication{}, ""); got != 1 {
			t.Fatalf("expected 1 application row, got %d", got)
		}
	})

	t.Run("job not found", func(t *testing.T) {
		db := newTestDB(t)
		e := newTestEngine(t, db)
		candidate := seedCandidate(t, db, "alice", testDegree, testBranch)

		if _, err := e.Apply(ctx, 42, candidate.ID); !errors.Is(err, ErrJobNotFound) {
			t.Fatalf("expected ErrJobNotFound, got %v", err)
		}
	})

	t.Run("job closed", func(t *testing.T) {
		db := newTestDB(t)
		e := newTestEngine(t, db)
		candidate := seedCandidate(t, db, "alice", testDegree, testBranch)
		job := seedJob(t, db, testDegree, []string{testBranch}, 3, testNow.Add(-time.Hour))

		if _, err := e.Apply(ctx, job.ID, candidate.ID); !errors.Is(err, ErrJobClosed) {
			t.Fatalf("expected ErrJobClosed, got %v", err)
		}
		if got := countRows(t, db, &database.JobApplication{}, ""); got != 0 {
			t.Fatalf("closed job must not accept applications, got %d rows", got)
		}
	})

	t.Run("not eligible", func(t *testing.T) {
		db := newTestDB(t)
		e := newTestEngine(t, db)
		candidate := seedCandidate(t, db, "bob", testDegree, "mechanical engineering")
		job := seedJob(t, db, testDegree, []string{testBranch}, 3, testNow.Add(time.Hour))

		if _, err := e.Apply(ctx, job.ID, candidate.ID); !errors.Is(err, ErrNotEligible) {
			t.Fatalf("expected ErrNotEligible, got %v", err)
		}
	})

	t.Run("second apply conflicts", func(t *testing.T) {
		db := newTestDB(t)
		e := newTestEngine(t, db)
		candidate := seedCandidate(t, db, "alice", testDegree, testBranch)
		job := seedJob(t, db, testDegree, []string{testBranch}, 3, testNow.Add(time.Hour))

		if _, err := e.Apply(ctx, job.ID, candidate.ID); err != nil {
			t.Fatalf("first apply: %v", err)
		}
		if _, err := e.Apply(ctx, job.ID, candidate.ID); !errors.Is(err, ErrAlreadyApplied) {
			t.Fatalf("expected ErrAlreadyApplied, got %v", err)
		}
		if got := countRows(t, db, &database.JobApplication{}, ""); got != 1 {
			t.Fatalf("at most one application row may exist, got %d", got)
		}
	})
}

func TestListApplicants(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	e := newTestEngine(t, db)
	job := seedJob(t, db, testDegree, []string{testBranch}, 3, testNow.Add(time.Hour))

	first := seedCandidate(t, db, "first", testDegree, testBranch)
	second := seedCandidate(t, db, "second", testDegree, testBranch)
	third := seedCandidate(t, db, "third", testDegree, testBranch)
	for _, u := range []database.User{first, second, third} {
		seedApplication(t, db, job.ID, u.ID)
	}

	applicants, err := e.ListApplicants(ctx, job.ID, 0, 10)
	if err != nil {
		t.Fatalf("list applicants: %v", err)
	}
	if len(applicants) != 3 {
		t.Fatalf("expected 3 applicants, got %d", len(applicants))
	}
	// 报名先后就是唯一有意义的顺序。
	for i, want := range []uint{first.ID, second.ID, third.ID} {
		if applicants[i].ID != want {
			t.Fatalf("applicant %d: got id %d, want %d", i, applicants[i].ID, want)
		}
	}

	page, err := e.ListApplicants(ctx, job.ID, 1, 1)
	if err != nil {
		t.Fatalf("list applicants page: %v", err)
	}
	if len(page) != 1 || page[0].ID != second.ID {
		t.Fatalf("expected middle page to hold %d, got %+v", second.ID, page)
	}

	if _, err := e.ListApplicants(ctx, 404, 0, 10); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestListOpenJobsFor(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	e := newTestEngine(t, db)
	candidate := seedCandidate(t, db, "alice", testDegree, testBranch)

	later := seedJob(t, db, testDegree, []string{testBranch}, 3, testNow.Add(48*time.Hour))
	sooner := seedJob(t, db, testDegree, []string{testBranch}, 3, testNow.Add(time.Hour))
	seedJob(t, db, testDegree, []string{testBranch}, 3, testNow.Add(-time.Hour))           // 已截止
	seedJob(t, db, "master of technology", []string{testBranch}, 3, testNow.Add(time.Hour)) // 学位不符
	seedJob(t, db, testDegree, []string{"electrical engineering"}, 3, testNow.Add(time.Hour)) // 专业不符

	jobs, err := e.ListOpenJobsFor(ctx, candidate.ID, 0, 10)
	if err != nil {
		t.Fatalf("list open jobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 applicable jobs, got %d", len(jobs))
	}
	if jobs[0].ID != sooner.ID || jobs[1].ID != later.ID {
		t.Fatalf("expected deadline-ascending order, got %d then %d", jobs[0].ID, jobs[1].ID)
	}

	if _, err := e.ListOpenJobsFor(ctx, 999, 0, 10); !errors.Is(err, ErrCandidateProfileAbsent) {
		t.Fatalf("expected ErrCandidateProfileAbsent, got %v", err)
	}
}

func TestCreateJob(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	e := newTestEngine(t, db)

	input := CreateJobInput{
		CompanyName:         "watchGuard",
		JobDescription:      "sde role",
		CTC:                 9.4,
		ApplicableDegree:    testDegree,
		ApplicableBranches:  []string{testBranch, "electrical engineering"},
		TotalRoundCount:     4,
		ApplicationClosedOn: testNow.Add(time.Hour),
	}

	job, err := e.CreateJob(ctx, input)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if job.CurrentRound != 0 {
		t.Fatalf("new job must start at round 0, got %d", job.CurrentRound)
	}
	if job.ApplicableBranches != "|"+testBranch+"|electrical engineering|" {
		t.Fatalf("unexpected branch encoding %q", job.ApplicableBranches)
	}

	input.TotalRoundCount = 0
	if _, err := e.CreateJob(ctx, input); !errors.Is(err, ErrInvalidRoundCount) {
		t.Fatalf("expected ErrInvalidRoundCount, got %v", err)
	}

	input.TotalRoundCount = 1
	input.ApplicableBranches = []string{"bad|branch"}
	if _, err := e.CreateJob(ctx, input); !errors.Is(err, ErrInvalidBranch) {
		t.Fatalf("expected ErrInvalidBranch, got %v", err)
	}
}
