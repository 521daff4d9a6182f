package api

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// operation runs fn as a named operation so hooks see it as one unit.
func (c *Client) operation(ctx context.Context, op OperationInfo, fn func(context.Context) error) error {
	ctx = c.hooks.OnOperationStart(ctx, op)
	start := time.Now()
	err := fn(ctx)
	c.hooks.OnOperationEnd(ctx, op, err, time.Since(start))
	return err
}

func getJSON[T any](ctx context.Context, c *Client, path string) (T, error) {
	var v T
	resp, err := c.Get(ctx, path)
	if err != nil {
		return v, err
	}
	if err := resp.UnmarshalData(&v); err != nil {
		return v, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return v, nil
}

func sendJSON[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var v T
	resp, err := c.do(ctx, request{method: method, path: path, body: body})
	if err != nil {
		return v, err
	}
	if err := resp.UnmarshalData(&v); err != nil {
		return v, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return v, nil
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
