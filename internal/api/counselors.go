package api

import (
	"context"

	"github.com/drmind/mindtalk-cli/internal/models"
)

// CounselorsService reads the counselor directory.
type CounselorsService struct {
	client *Client
}

// Counselors returns the counselors service.
func (c *Client) Counselors() *CounselorsService {
	return &CounselorsService{client: c}
}

// List returns every counselor.
func (s *CounselorsService) List(ctx context.Context) ([]models.Counselor, error) {
	var out []models.Counselor
	err := s.client.operation(ctx, OperationInfo{Service: "Counselors", Operation: "List"}, func(ctx context.Context) error {
		var err error
		out, err = getJSON[[]models.Counselor](ctx, s.client, "/counselors")
		return err
	})
	return out, err
}

// Get returns one counselor.
func (s *CounselorsService) Get(ctx context.Context, id int64) (*models.Counselor, error) {
	var out models.Counselor
	op := OperationInfo{Service: "Counselors", Operation: "Get", ResourceID: idString(id)}
	err := s.client.operation(ctx, op, func(ctx context.Context) error {
		var err error
		out, err = getJSON[models.Counselor](ctx, s.client, "/counselors/"+idString(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
