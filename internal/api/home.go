package api

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/drmind/mindtalk-cli/internal/models"
)

// Home loads the home screen: characters, counselors and recent sessions,
// fetched concurrently. The first failure cancels the others.
func (c *Client) Home(ctx context.Context) (*models.Home, error) {
	home := &models.Home{}
	err := c.operation(ctx, OperationInfo{Service: "Home", Operation: "Load"}, func(ctx context.Context) error {
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			home.Characters, err = getJSON[[]models.Character](ctx, c, "/characters")
			return err
		})
		g.Go(func() error {
			var err error
			home.Counselors, err = getJSON[[]models.Counselor](ctx, c, "/counselors")
			return err
		})
		g.Go(func() error {
			var err error
			home.Sessions, err = getJSON[[]models.Session](ctx, c, "/sessions")
			return err
		})
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}
	return home, nil
}
