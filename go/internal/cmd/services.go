package main

import (
	"database/sql"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/livepoll/go/internal/memstore"
	"github.com/mcdev12/livepoll/go/internal/polls"
	pollsdb "github.com/mcdev12/livepoll/go/internal/polls/db"
	"github.com/mcdev12/livepoll/go/internal/realtime"
	"github.com/mcdev12/livepoll/go/internal/students"
	studentsdb "github.com/mcdev12/livepoll/go/internal/students/db"
	"github.com/mcdev12/livepoll/go/internal/votes"
	votesdb "github.com/mcdev12/livepoll/go/internal/votes/db"
)

type repositories struct {
	polls    polls.PollsRepository
	tally    polls.VoteTally
	students students.StudentsRepository
	votes    votes.VotesRepository
}

func postgresRepositories(database *sql.DB) repositories {
	votesRepo := votes.NewRepository(votesdb.New(database))
	return repositories{
		polls:    polls.NewRepository(pollsdb.New(database), database),
		tally:    votesRepo,
		students: students.NewRepository(studentsdb.New(database)),
		votes:    votesRepo,
	}
}

func memoryRepositories() repositories {
	store := memstore.New()
	return repositories{polls: store, tally: store, students: store, votes: store}
}

type Services struct {
	Polls    *polls.Service
	Votes    *votes.Service
	Students *students.Service

	PollsHandler    *polls.Handler
	VotesHandler    *votes.Handler
	StudentsHandler *students.Handler

	Connections *realtime.ConnectionManager
	WebSocket   *realtime.WebSocketHandler
}

func setupServices(repos repositories, clock clockwork.Clock, cm *realtime.ConnectionManager) *Services {
	// Wire up dependency injection chain
	// Repository layer → App layer → Service/Handler layer, with the
	// connection manager receiving committed transitions

	broadcaster := realtime.NewBroadcaster(cm)

	pollsApp := polls.NewApp(repos.polls, repos.tally, clock, broadcaster)
	studentsApp := students.NewApp(repos.students, clock)
	votesApp := votes.NewApp(repos.votes, pollsApp, studentsApp, clock, broadcaster)

	protocol := realtime.NewProtocol(cm, pollsApp, votesApp, studentsApp)

	return &Services{
		Polls:           polls.NewService(pollsApp),
		Votes:           votes.NewService(votesApp),
		Students:        students.NewService(studentsApp),
		PollsHandler:    polls.NewHandler(pollsApp),
		VotesHandler:    votes.NewHandler(votesApp),
		StudentsHandler: students.NewHandler(studentsApp),
		Connections:     cm,
		WebSocket:       realtime.NewWebSocketHandler(cm, protocol),
	}
}
