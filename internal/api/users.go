package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/drmind/mindtalk-cli/internal/models"
	"github.com/drmind/mindtalk-cli/internal/output"
)

// UsersService reads and updates the signed-in user's profile.
type UsersService struct {
	client *Client
}

// Users returns the users service.
func (c *Client) Users() *UsersService {
	return &UsersService{client: c}
}

// Me returns the signed-in user's profile.
func (s *UsersService) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	err := s.client.operation(ctx, OperationInfo{Service: "Users", Operation: "Me"}, func(ctx context.Context) error {
		var err error
		out, err = getJSON[models.User](ctx, s.client, "/users/me")
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateNickname changes the nickname and updates the stored identity.
func (s *UsersService) UpdateNickname(ctx context.Context, nickname string) (*models.User, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, output.ErrUsage("Nickname is required")
	}

	var out models.User
	err := s.client.operation(ctx, OperationInfo{Service: "Users", Operation: "UpdateNickname"}, func(ctx context.Context) error {
		var err error
		out, err = sendJSON[models.User](ctx, s.client, http.MethodPatch, "/users/me",
			map[string]string{"nickname": nickname})
		if err != nil {
			return err
		}

		// Some deployments answer with a bare confirmation, which unwraps to {}.
		if out.Nickname == "" {
			out.Nickname = nickname
		}
		return s.syncIdentity(out.Nickname)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *UsersService) syncIdentity(nickname string) error {
	store := s.client.store
	gen := store.Generation()
	creds := store.Current()
	if creds == nil || creds.User.Nickname == nickname {
		return nil
	}
	creds.User.Nickname = nickname
	_, err := store.SaveIf(gen, creds)
	return err
}
