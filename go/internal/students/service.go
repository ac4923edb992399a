package students

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/livepoll/go/internal/apperr"
	"github.com/mcdev12/livepoll/go/internal/models"
	"github.com/mcdev12/livepoll/go/internal/rpcjson"
)

// StudentServiceName is the fully-qualified name of the student RPC service
const StudentServiceName = "livepoll.v1.StudentService"

const (
	RegisterStudentProcedure = "/" + StudentServiceName + "/RegisterStudent"
	GetStudentProcedure      = "/" + StudentServiceName + "/GetStudent"
	ListStudentsProcedure    = "/" + StudentServiceName + "/ListStudents"
)

// Service implements StudentService over Connect
type Service struct {
	app StudentsApp
}

// NewService creates a new students RPC service
func NewService(app StudentsApp) *Service {
	return &Service{app: app}
}

// Handler returns the mount path and handler for every StudentService procedure
func (s *Service) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{rpcjson.Option()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(RegisterStudentProcedure, connect.NewUnaryHandler(RegisterStudentProcedure, s.RegisterStudent, opts...))
	mux.Handle(GetStudentProcedure, connect.NewUnaryHandler(GetStudentProcedure, s.GetStudent, opts...))
	mux.Handle(ListStudentsProcedure, connect.NewUnaryHandler(ListStudentsProcedure, s.ListStudents, opts...))
	return "/" + StudentServiceName + "/", mux
}

// RegisterStudent registers or recognizes a session
func (s *Service) RegisterStudent(ctx context.Context, req *connect.Request[RegisterStudentRequest]) (*connect.Response[StudentResponse], error) {
	student, err := s.app.RegisterStudent(ctx, *req.Msg)
	if err != nil {
		return nil, apperr.ToConnect(err)
	}
	return connect.NewResponse(&StudentResponse{Student: student}), nil
}

// GetStudent looks a student up by id, or by session token when no id is given
func (s *Service) GetStudent(ctx context.Context, req *connect.Request[StudentRequest]) (*connect.Response[StudentResponse], error) {
	var (
		student *models.Student
		err     error
	)
	switch {
	case req.Msg.StudentID != "":
		id, perr := uuid.Parse(req.Msg.StudentID)
		if perr != nil {
			return nil, apperr.ToConnect(apperr.Validation("invalid student id"))
		}
		student, err = s.app.GetStudent(ctx, id)
	case req.Msg.SessionID != "":
		student, err = s.app.GetStudentBySession(ctx, req.Msg.SessionID)
	default:
		return nil, apperr.ToConnect(apperr.Validation("student id or session id is required"))
	}
	if err != nil {
		return nil, apperr.ToConnect(err)
	}
	return connect.NewResponse(&StudentResponse{Student: student}), nil
}

// ListStudents lists registered students
func (s *Service) ListStudents(ctx context.Context, _ *connect.Request[ListStudentsRequest]) (*connect.Response[ListStudentsResponse], error) {
	students, err := s.app.ListStudents(ctx)
	if err != nil {
		return nil, apperr.ToConnect(err)
	}
	return connect.NewResponse(&ListStudentsResponse{Students: students}), nil
}
