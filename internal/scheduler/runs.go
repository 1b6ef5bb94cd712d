package scheduler

import (
	"context"
	"net/http"

	"github.com/five82/cadence/internal/lifecycle"
)

// RunFilter narrows GET /runs. Empty fields are not sent.
type RunFilter struct {
	ListOptions
	ScheduleID string
	Status     lifecycle.RunStatus
	ErrorType  lifecycle.ErrorType
}

// RunService covers the read-only /runs history.
type RunService struct {
	c *Client
}

func (s *RunService) List(ctx context.Context, filter RunFilter) (*Page[Run], error) {
	query := filter.values()
	setIfPresent(query, "schedule_id", filter.ScheduleID)
	setIfPresent(query, "status", string(filter.Status))
	setIfPresent(query, "error_type", string(filter.ErrorType))

	var payload Page[Run]
	err := s.c.do(ctx, call{
		method: http.MethodGet,
		route:  "/runs",
		path:   "/runs",
		query:  query,
		dest:   &payload,
	})
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

func (s *RunService) Get(ctx context.Context, id string) (*Run, error) {
	var payload Run
	err := s.c.do(ctx, call{
		method: http.MethodGet,
		route:  "/runs/{id}",
		path:   expand("/runs/{id}", id),
		dest:   &payload,
	})
	if err != nil {
		return nil, err
	}
	return &payload, nil
}
