package client

import "context"

// Health checks the API health endpoint
func (c *Client) Health(ctx context.Context) (map[string]string, error) {
	var status map[string]string
	if err := c.doRequest(ctx, "GET", "/healthz", nil, &status); err != nil {
		return nil, err
	}
	return status, nil
}
