package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/drmind/mindtalk-cli/internal/models"
	"github.com/drmind/mindtalk-cli/internal/output"
)

// SessionsService manages chat sessions and their messages.
type SessionsService struct {
	client *Client
}

// Sessions returns the sessions service.
func (c *Client) Sessions() *SessionsService {
	return &SessionsService{client: c}
}

// CreateSessionRequest starts a session with exactly one partner.
type CreateSessionRequest struct {
	CharacterID int64 `json:"characterId,omitempty"`
	CounselorID int64 `json:"counselorId,omitempty"`
}

// List returns the user's sessions, most recent first.
func (s *SessionsService) List(ctx context.Context) ([]models.Session, error) {
	var out []models.Session
	err := s.client.operation(ctx, OperationInfo{Service: "Sessions", Operation: "List"}, func(ctx context.Context) error {
		var err error
		out, err = getJSON[[]models.Session](ctx, s.client, "/sessions")
		return err
	})
	return out, err
}

// Get returns one session.
func (s *SessionsService) Get(ctx context.Context, id int64) (*models.Session, error) {
	var out models.Session
	op := OperationInfo{Service: "Sessions", Operation: "Get", ResourceID: idString(id)}
	err := s.client.operation(ctx, op, func(ctx context.Context) error {
		var err error
		out, err = getJSON[models.Session](ctx, s.client, sessionPath(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Create starts a new session.
func (s *SessionsService) Create(ctx context.Context, req CreateSessionRequest) (*models.Session, error) {
	if (req.CharacterID == 0) == (req.CounselorID == 0) {
		return nil, output.ErrUsage("Specify exactly one of a character or a counselor")
	}

	var out models.Session
	err := s.client.operation(ctx, OperationInfo{Service: "Sessions", Operation: "Create"}, func(ctx context.Context) error {
		var err error
		out, err = sendJSON[models.Session](ctx, s.client, http.MethodPost, "/sessions", req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a session and its messages.
func (s *SessionsService) Delete(ctx context.Context, id int64) error {
	op := OperationInfo{Service: "Sessions", Operation: "Delete", ResourceID: idString(id)}
	return s.client.operation(ctx, op, func(ctx context.Context) error {
		_, err := s.client.Delete(ctx, sessionPath(id))
		return err
	})
}

// Messages returns a session's messages in chronological order.
func (s *SessionsService) Messages(ctx context.Context, id int64) ([]models.Message, error) {
	var out []models.Message
	op := OperationInfo{Service: "Sessions", Operation: "Messages", ResourceID: idString(id)}
	err := s.client.operation(ctx, op, func(ctx context.Context) error {
		var err error
		out, err = getJSON[[]models.Message](ctx, s.client, sessionPath(id)+"/messages")
		return err
	})
	return out, err
}

// Send posts a user message and returns it with the counselor's reply.
func (s *SessionsService) Send(ctx context.Context, id int64, content string) (*models.Exchange, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, output.ErrUsage("Message content is required")
	}

	var out models.Exchange
	op := OperationInfo{Service: "Sessions", Operation: "Send", ResourceID: idString(id)}
	err := s.client.operation(ctx, op, func(ctx context.Context) error {
		var err error
		out, err = sendJSON[models.Exchange](ctx, s.client, http.MethodPost, sessionPath(id)+"/messages",
			map[string]string{"content": content})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func sessionPath(id int64) string {
	return "/sessions/" + idString(id)
}
