// Package memstore keeps polls, students and votes in process memory. It
// satisfies the same repository contracts as the Postgres repositories and
// backs the "memory" storage driver.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/livepoll/go/internal/apperr"
	"github.com/mcdev12/livepoll/go/internal/models"
	"github.com/mcdev12/livepoll/go/internal/polls"
	"github.com/mcdev12/livepoll/go/internal/students"
	"github.com/mcdev12/livepoll/go/internal/votes"
)

type voteKey struct {
	pollID    uuid.UUID
	studentID uuid.UUID
}

// Store is safe for concurrent use. Every mutation holds the write lock, which
// gives the same guarantees the database constraints give the SQL repositories.
type Store struct {
	mu       sync.RWMutex
	polls    map[uuid.UUID]*models.Poll
	students map[uuid.UUID]*models.Student
	sessions map[string]uuid.UUID
	votes    []models.Vote
	voted    map[voteKey]bool
}

// New creates an empty Store
func New() *Store {
	return &Store{
		polls:    make(map[uuid.UUID]*models.Poll),
		students: make(map[uuid.UUID]*models.Student),
		sessions: make(map[string]uuid.UUID),
		voted:    make(map[voteKey]bool),
	}
}

// Polls

func (s *Store) CreatePoll(ctx context.Context, req polls.CreatePollRequest, createdAt time.Time) (*models.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	poll := &models.Poll{
		ID:              uuid.New(),
		Question:        req.Question,
		DurationSeconds: req.DurationSeconds,
		Status:          models.PollStatusCreated,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
	for i, text := range req.Options {
		poll.Options = append(poll.Options, models.PollOption{
			ID:         uuid.New(),
			PollID:     poll.ID,
			OptionText: text,
			Index:      i,
			CreatedAt:  createdAt,
		})
	}
	s.polls[poll.ID] = poll
	return copyPoll(poll, true), nil
}

func (s *Store) GetPoll(ctx context.Context, id uuid.UUID) (*models.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	poll, ok := s.polls[id]
	if !ok {
		return nil, apperr.NotFound("poll not found")
	}
	return copyPoll(poll, true), nil
}

func (s *Store) GetActivePoll(ctx context.Context) (*models.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if active := s.activeLocked(); active != nil {
		return copyPoll(active, true), nil
	}
	return nil, nil
}

func (s *Store) ListPolls(ctx context.Context) ([]models.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Poll, 0, len(s.polls))
	for _, p := range s.polls {
		result = append(result, *copyPoll(p, false))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) ActivatePoll(ctx context.Context, id uuid.UUID, startedAt time.Time) (*models.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if active := s.activeLocked(); active != nil && active.ID != id {
		return nil, polls.ErrAnotherPollActive(active.ID)
	}
	poll, ok := s.polls[id]
	if !ok || poll.Status != models.PollStatusCreated {
		return nil, polls.ErrNoTransition
	}
	poll.Status = models.PollStatusActive
	poll.StartedAt = &startedAt
	poll.UpdatedAt = startedAt
	return copyPoll(poll, false), nil
}

func (s *Store) FinishPoll(ctx context.Context, id uuid.UUID, endedAt time.Time) (*models.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	poll, ok := s.polls[id]
	if !ok || poll.Status != models.PollStatusActive {
		return nil, polls.ErrNoTransition
	}
	poll.Status = models.PollStatusEnded
	poll.EndedAt = &endedAt
	poll.UpdatedAt = endedAt
	return copyPoll(poll, false), nil
}

func (s *Store) activeLocked() *models.Poll {
	for _, p := range s.polls {
		if p.Status == models.PollStatusActive {
			return p
		}
	}
	return nil
}

// Students

func (s *Store) CreateStudent(ctx context.Context, req students.RegisterStudentRequest, createdAt time.Time) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.sessions[req.SessionID]; taken {
		return nil, students.ErrSessionTaken
	}
	student := &models.Student{
		ID:         uuid.New(),
		Name:       req.Name,
		SessionID:  req.SessionID,
		CreatedAt:  createdAt,
		LastSeenAt: createdAt,
	}
	s.students[student.ID] = student
	s.sessions[req.SessionID] = student.ID
	cp := *student
	return &cp, nil
}

func (s *Store) GetStudent(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	student, ok := s.students[id]
	if !ok {
		return nil, apperr.NotFound("student not found")
	}
	cp := *student
	return &cp, nil
}

func (s *Store) GetStudentBySession(ctx context.Context, sessionID string) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *s.students[id]
	return &cp, nil
}

func (s *Store) TouchStudent(ctx context.Context, sessionID string, seenAt time.Time) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	student := s.students[id]
	if seenAt.After(student.LastSeenAt) {
		student.LastSeenAt = seenAt
	}
	cp := *student
	return &cp, nil
}

func (s *Store) ListStudents(ctx context.Context) ([]models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Student, 0, len(s.students))
	for _, st := range s.students {
		result = append(result, *st)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Votes

func (s *Store) CreateVote(ctx context.Context, req votes.SubmitVoteRequest, votedAt time.Time) (*models.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := voteKey{pollID: req.PollID, studentID: req.StudentID}
	if s.voted[key] {
		return nil, votes.ErrAlreadyVoted()
	}
	poll, ok := s.polls[req.PollID]
	if !ok || !poll.HasOption(req.OptionID) {
		return nil, apperr.Validation("invalid option for this poll")
	}
	if _, ok := s.students[req.StudentID]; !ok {
		return nil, apperr.NotFound("student not found")
	}

	vote := models.Vote{
		ID:        uuid.New(),
		PollID:    req.PollID,
		StudentID: req.StudentID,
		OptionID:  req.OptionID,
		VotedAt:   votedAt,
		ClientIP:  req.ClientIP,
	}
	s.votes = append(s.votes, vote)
	s.voted[key] = true
	return &vote, nil
}

func (s *Store) HasVoted(ctx context.Context, pollID, studentID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voted[voteKey{pollID: pollID, studentID: studentID}], nil
}

func (s *Store) CountVotesByOption(ctx context.Context, pollID uuid.UUID) (map[uuid.UUID]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[uuid.UUID]int)
	for _, v := range s.votes {
		if v.PollID == pollID {
			counts[v.OptionID]++
		}
	}
	return counts, nil
}

func (s *Store) CountVotes(ctx context.Context, pollID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, v := range s.votes {
		if v.PollID == pollID {
			total++
		}
	}
	return total, nil
}

func (s *Store) ListVotes(ctx context.Context, pollID uuid.UUID) ([]models.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Vote, 0)
	for _, v := range s.votes {
		if v.PollID == pollID {
			result = append(result, v)
		}
	}
	return result, nil
}

func copyPoll(p *models.Poll, withOptions bool) *models.Poll {
	cp := *p
	cp.Options = nil
	if withOptions {
		cp.Options = append([]models.PollOption(nil), p.Options...)
	}
	return &cp
}
