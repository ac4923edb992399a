package students

import "github.com/mcdev12/livepoll/go/internal/models"

// RegisterStudentRequest represents a registration from a client session
type RegisterStudentRequest struct {
	Name      string `json:"name"`
	SessionID string `json:"sessionId"`
}

// StudentRequest looks a student up by id or session token
type StudentRequest struct {
	StudentID string `json:"studentId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// StudentResponse wraps a single student
type StudentResponse struct {
	Student *models.Student `json:"student"`
}

// ListStudentsRequest is empty; students are returned newest first
type ListStudentsRequest struct{}

// ListStudentsResponse lists registered students
type ListStudentsResponse struct {
	Students []models.Student `json:"students"`
}
