package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/drmind/mindtalk-cli/internal/auth"
	"github.com/drmind/mindtalk-cli/internal/models"
	"github.com/drmind/mindtalk-cli/internal/output"
)

// OAuth providers accepted by OAuthLogin.
const (
	ProviderGoogle = "google"
	ProviderKakao  = "kakao"
)

// AuthService signs users in and out.
type AuthService struct {
	client *Client
}

// Auth returns the authentication service.
func (c *Client) Auth() *AuthService {
	return &AuthService{client: c}
}

// Login signs in with email and password and saves the session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	if email == "" || password == "" {
		return nil, output.ErrUsage("Email and password are required")
	}

	var result *models.AuthResult
	err := s.client.operation(ctx, OperationInfo{Service: "Auth", Operation: "Login"}, func(ctx context.Context) error {
		var err error
		result, err = s.exchange(ctx, "/auth/login", map[string]string{
			"email":    email,
			"password": password,
		})
		return err
	})
	return result, err
}

// OAuthLogin exchanges a Google or Kakao provider token for a session.
func (s *AuthService) OAuthLogin(ctx context.Context, provider, providerToken string) (*models.AuthResult, error) {
	switch provider {
	case ProviderGoogle, ProviderKakao:
	default:
		return nil, output.ErrUsageHint("Unknown provider: "+provider, "Use google or kakao")
	}
	if providerToken == "" {
		return nil, output.ErrUsage("Provider token is required")
	}

	var result *models.AuthResult
	op := OperationInfo{Service: "Auth", Operation: "OAuthLogin", ResourceID: provider}
	err := s.client.operation(ctx, op, func(ctx context.Context) error {
		var err error
		result, err = s.exchange(ctx, "/auth/oauth/"+provider, map[string]string{"token": providerToken})
		return err
	})
	return result, err
}

func (s *AuthService) exchange(ctx context.Context, path string, body any) (*models.AuthResult, error) {
	resp, err := s.client.send(ctx, request{method: http.MethodPost, path: path, body: body, public: true}, attempt{})
	if err != nil {
		return nil, err
	}

	var result models.AuthResult
	if err := resp.UnmarshalData(&result); err != nil {
		return nil, output.ErrAPI(resp.StatusCode, "Malformed login response")
	}

	creds := &auth.Credentials{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		User: auth.User{
			ID:       strconv.FormatInt(result.User.ID, 10),
			Email:    result.User.Email,
			Nickname: result.User.Nickname,
		},
	}
	if err := s.client.store.Save(creds); err != nil {
		if errors.Is(err, auth.ErrIncomplete) {
			return nil, output.ErrAPI(resp.StatusCode, "Login response is missing session fields")
		}
		return nil, err
	}
	if s.client.cache != nil {
		s.client.cache.Clear()
	}
	return &result, nil
}

// Logout ends the session. The server is told on a best-effort basis; the
// local session is cleared regardless of its answer.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.client.operation(ctx, OperationInfo{Service: "Auth", Operation: "Logout"}, func(ctx context.Context) error {
		if creds := s.client.store.Current(); creds != nil {
			req := request{
				method: http.MethodPost,
				path:   "/auth/logout",
				body:   map[string]string{"refreshToken": creds.RefreshToken},
				public: true,
			}
			if _, err := s.client.send(ctx, req, attempt{}); err != nil {
				s.client.logger.Debug("server logout failed", "error", err)
			}
		}

		if s.client.cache != nil {
			s.client.cache.Clear()
		}
		return s.client.store.Clear()
	})
}
