package scheduler

import (
	"context"
	"net/http"
)

// TargetService covers /targets.
type TargetService struct {
	c *Client
}

func (s *TargetService) List(ctx context.Context, opts ListOptions) (*Page[Target], error) {
	var payload Page[Target]
	err := s.c.do(ctx, call{
		method: http.MethodGet,
		route:  "/targets",
		path:   "/targets",
		query:  opts.values(),
		dest:   &payload,
	})
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

func (s *TargetService) Get(ctx context.Context, id string) (*Target, error) {
	var payload Target
	err := s.c.do(ctx, call{
		method: http.MethodGet,
		route:  "/targets/{id}",
		path:   expand("/targets/{id}", id),
		dest:   &payload,
	})
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

// Create validates the payload shape locally, then posts it.
func (s *TargetService) Create(ctx context.Context, in TargetCreate) (*Target, error) {
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	var payload Target
	err := s.c.do(ctx, call{
		method: http.MethodPost,
		route:  "/targets",
		path:   "/targets",
		body:   in,
		dest:   &payload,
	})
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

// Update sends a partial update with PUT.
func (s *TargetService) Update(ctx context.Context, id string, in TargetUpdate) (*Target, error) {
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	var payload Target
	err := s.c.do(ctx, call{
		method: http.MethodPut,
		route:  "/targets/{id}",
		path:   expand("/targets/{id}", id),
		body:   in,
		dest:   &payload,
	})
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

func (s *TargetService) Delete(ctx context.Context, id string) error {
	return s.c.do(ctx, call{
		method: http.MethodDelete,
		route:  "/targets/{id}",
		path:   expand("/targets/{id}", id),
	})
}
