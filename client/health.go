package client

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
)

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{}
	if err := c.do(ctx, http.MethodGet, c.healthURL, "/health", "", nil, status); err != nil {
		return nil, errors.Wrap(err, "checking health")
	}
	return status, nil
}
