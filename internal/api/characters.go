package api

import (
	"context"

	"github.com/drmind/mindtalk-cli/internal/models"
)

// CharactersService reads the AI characters catalog.
type CharactersService struct {
	client *Client
}

// Characters returns the characters service.
func (c *Client) Characters() *CharactersService {
	return &CharactersService{client: c}
}

// List returns every character.
func (s *CharactersService) List(ctx context.Context) ([]models.Character, error) {
	var out []models.Character
	err := s.client.operation(ctx, OperationInfo{Service: "Characters", Operation: "List"}, func(ctx context.Context) error {
		var err error
		out, err = getJSON[[]models.Character](ctx, s.client, "/characters")
		return err
	})
	return out, err
}

// Get returns one character.
func (s *CharactersService) Get(ctx context.Context, id int64) (*models.Character, error) {
	var out models.Character
	op := OperationInfo{Service: "Characters", Operation: "Get", ResourceID: idString(id)}
	err := s.client.operation(ctx, op, func(ctx context.Context) error {
		var err error
		out, err = getJSON[models.Character](ctx, s.client, "/characters/"+idString(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
