package client

import (
	"context"
	"fmt"
)

// ClusterService handles correlation cluster API calls
type ClusterService struct {
	client *Client
}

// Sweep runs an on-demand correlation sweep and returns the clusters found
func (s *ClusterService) Sweep(ctx context.Context) ([]Cluster, error) {
	var clusters []Cluster
	if err := s.client.doRequest(ctx, "POST", "/api/v1/clusters/sweep", nil, &clusters); err != nil {
		return nil, err
	}
	return clusters, nil
}

// Members retrieves the alerts stamped with a correlation id
func (s *ClusterService) Members(ctx context.Context, correlationID string) (*Page[Alert], error) {
	path := fmt.Sprintf("/api/v1/clusters/%s", correlationID)

	var page Page[Alert]
	if err := s.client.doRequest(ctx, "GET", path, nil, &page); err != nil {
		return nil, err
	}

	return &page, nil
}
