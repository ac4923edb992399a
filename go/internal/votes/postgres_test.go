package votes_test

import (
	"context"
	"database/sql"
	"net"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/livepoll/go/internal/apperr"
	"github.com/mcdev12/livepoll/go/internal/models"
	"github.com/mcdev12/livepoll/go/internal/polls"
	pollsdb "github.com/mcdev12/livepoll/go/internal/polls/db"
	"github.com/mcdev12/livepoll/go/internal/students"
	studentsdb "github.com/mcdev12/livepoll/go/internal/students/db"
	"github.com/mcdev12/livepoll/go/internal/testutil"
	"github.com/mcdev12/livepoll/go/internal/votes"
	votesdb "github.com/mcdev12/livepoll/go/internal/votes/db"
)

type stack struct {
	polls    *polls.App
	students *students.App
	votes    *votes.App
	voteRepo *votes.Repository
	sqlDB    *sql.DB
}

func newStack(t *testing.T) *stack {
	t.Helper()
	sqlDB := testutil.OpenTestDB(t)
	clock := clockwork.NewRealClock()

	voteRepo := votes.NewRepository(votesdb.New(sqlDB))
	pollsApp := polls.NewApp(polls.NewRepository(pollsdb.New(sqlDB), sqlDB), voteRepo, clock, nil)
	studentsApp := students.NewApp(students.NewRepository(studentsdb.New(sqlDB)), clock)

	return &stack{
		polls:    pollsApp,
		students: studentsApp,
		votes:    votes.NewApp(voteRepo, pollsApp, studentsApp, clock, nil),
		voteRepo: voteRepo,
		sqlDB:    sqlDB,
	}
}

func (s *stack) activePoll(t *testing.T) *models.Poll {
	t.Helper()
	ctx := context.Background()
	poll, err := s.polls.CreatePoll(ctx, polls.CreatePollRequest{Question: "Q", Options: []string{"A", "B"}, DurationSeconds: 60})
	if err != nil {
		t.Fatalf("CreatePoll() error = %v", err)
	}
	if _, _, err := s.polls.StartPoll(ctx, poll.ID); err != nil {
		t.Fatalf("StartPoll() error = %v", err)
	}
	return poll
}

func TestPostgresConcurrentDuplicateVotes(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	poll := s.activePoll(t)
	student, err := s.students.RegisterStudent(ctx, students.RegisterStudentRequest{Name: "S", SessionID: "race"})
	if err != nil {
		t.Fatal(err)
	}

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.votes.SubmitVote(ctx, votes.SubmitVoteRequest{
				PollID: poll.ID, StudentID: student.ID, OptionID: poll.Options[i%2].ID,
				ClientIP: net.ParseIP("192.0.2.10"),
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if !apperr.Is(err, apperr.KindConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("successes = %d, want 1", successes)
	}
	var rows int
	if err := s.sqlDB.QueryRow(`SELECT COUNT(*) FROM votes WHERE poll_id = $1`, poll.ID).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Errorf("vote rows = %d, want 1", rows)
	}

	list, err := s.voteRepo.ListVotes(ctx, poll.ID)
	if err != nil || len(list) != 1 || !list[0].ClientIP.Equal(net.ParseIP("192.0.2.10")) {
		t.Errorf("ListVotes() = %+v, %v", list, err)
	}
}

func TestPostgresConcurrentStartsActivateOne(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	const n = 8
	ids := make([]uuid.UUID, n)
	for i := range ids {
		poll, err := s.polls.CreatePoll(ctx, polls.CreatePollRequest{Question: "Q", Options: []string{"A", "B"}, DurationSeconds: 60})
		if err != nil {
			t.Fatal(err)
		}
		ids[i] = poll.ID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, _, err := s.polls.StartPoll(ctx, id)
			if err != nil && !apperr.Is(err, apperr.KindConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	var active int
	if err := s.sqlDB.QueryRow(`SELECT COUNT(*) FROM polls WHERE status = 'ACTIVE'`).Scan(&active); err != nil {
		t.Fatal(err)
	}
	if active != 1 {
		t.Errorf("active polls = %d, want 1", active)
	}
}

func TestPostgresOptionMustBelongToPoll(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	poll := s.activePoll(t)
	other, err := s.polls.CreatePoll(ctx, polls.CreatePollRequest{Question: "Other", Options: []string{"X", "Y"}, DurationSeconds: 30})
	if err != nil {
		t.Fatal(err)
	}
	student, err := s.students.RegisterStudent(ctx, students.RegisterStudentRequest{Name: "S", SessionID: "opt"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.votes.SubmitVote(ctx, votes.SubmitVoteRequest{PollID: poll.ID, StudentID: student.ID, OptionID: other.Options[0].ID})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// the composite foreign key rejects the row even when the app check is bypassed
	_, err = s.voteRepo.CreateVote(ctx, votes.SubmitVoteRequest{PollID: poll.ID, StudentID: student.ID, OptionID: other.Options[0].ID}, poll.CreatedAt)
	if err == nil {
		t.Fatal("expected the storage layer to reject a foreign option")
	}

	results, err := s.polls.GetResults(ctx, poll.ID)
	if err != nil || results.TotalVotes != 0 {
		t.Errorf("GetResults() = %+v, %v", results, err)
	}
}

func TestPostgresStudentSessionIsUnique(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make(chan uuid.UUID, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st, err := s.students.RegisterStudent(ctx, students.RegisterStudentRequest{Name: "Ada", SessionID: "same-tab"})
			if err != nil {
				t.Errorf("RegisterStudent() error = %v", err)
				return
			}
			ids <- st.ID
		}()
	}
	wg.Wait()
	close(ids)

	var first uuid.UUID
	for id := range ids {
		if first == uuid.Nil {
			first = id
		} else if id != first {
			t.Errorf("got two identities for one session: %s and %s", first, id)
		}
	}
}
