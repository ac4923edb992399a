package pollclient

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Session is the state a client keeps across restarts: an opaque session
// token generated once, plus the student it registered as.
type Session struct {
	SessionID   string `yaml:"session_id"`
	StudentID   string `yaml:"student_id,omitempty"`
	StudentName string `yaml:"student_name,omitempty"`
}

// DefaultSessionPath returns the per-user session file location
func DefaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "livepoll", "session.yaml")
}

// LoadSession reads the session file, creating it with a fresh token when
// it does not exist yet.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s := &Session{SessionID: uuid.NewString()}
		if err := s.Save(path); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", path, err)
	}

	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	if s.SessionID == "" {
		s.SessionID = uuid.NewString()
		if err := s.Save(path); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// Save writes the session file
func (s *Session) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session %s: %w", path, err)
	}
	return nil
}

// Remember stores the registered student
func (s *Session) Remember(studentID uuid.UUID, name string) {
	s.StudentID = studentID.String()
	s.StudentName = name
}
