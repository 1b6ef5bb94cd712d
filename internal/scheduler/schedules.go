package scheduler

import (
	"context"
	"net/http"

	"github.com/five82/cadence/internal/lifecycle"
)

// ScheduleFilter narrows GET /schedules. Empty fields are not sent.
type ScheduleFilter struct {
	ListOptions
	Status   lifecycle.ScheduleStatus
	TargetID string
}

// ScheduleService covers /schedules. Status changes are requested, never
// applied locally: the returned Schedule is what the service reports.
type ScheduleService struct {
	c *Client
}

func (s *ScheduleService) List(ctx context.Context, filter ScheduleFilter) (*Page[Schedule], error) {
	query := filter.values()
	setIfPresent(query, "status", string(filter.Status))
	setIfPresent(query, "target_id", filter.TargetID)

	var payload Page[Schedule]
	err := s.c.do(ctx, call{
		method: http.MethodGet,
		route:  "/schedules",
		path:   "/schedules",
		query:  query,
		dest:   &payload,
	})
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

func (s *ScheduleService) Get(ctx context.Context, id string) (*Schedule, error) {
	var payload Schedule
	err := s.c.do(ctx, call{
		method: http.MethodGet,
		route:  "/schedules/{id}",
		path:   expand("/schedules/{id}", id),
		dest:   &payload,
	})
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

// Create rejects a window schedule without a duration, and an interval
// schedule with one, before any network I/O.
func (s *ScheduleService) Create(ctx context.Context, in ScheduleCreate) (*Schedule, error) {
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	var payload Schedule
	err := s.c.do(ctx, call{
		method: http.MethodPost,
		route:  "/schedules",
		path:   "/schedules",
		body:   in,
		dest:   &payload,
	})
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

func (s *ScheduleService) Pause(ctx context.Context, id string) (*Schedule, error) {
	return s.transition(ctx, id, lifecycle.ActionPause)
}

func (s *ScheduleService) Resume(ctx context.Context, id string) (*Schedule, error) {
	return s.transition(ctx, id, lifecycle.ActionResume)
}

// Apply dispatches a lifecycle action. Delete yields a nil Schedule.
func (s *ScheduleService) Apply(ctx context.Context, id string, action lifecycle.Action) (*Schedule, error) {
	if action == lifecycle.ActionDelete {
		return nil, s.Delete(ctx, id)
	}
	return s.transition(ctx, id, action)
}

func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	return s.c.do(ctx, call{
		method: http.MethodDelete,
		route:  "/schedules/{id}",
		path:   expand("/schedules/{id}", id),
	})
}

func (s *ScheduleService) transition(ctx context.Context, id string, action lifecycle.Action) (*Schedule, error) {
	route := "/schedules/{id}/" + string(action)
	var payload Schedule
	err := s.c.do(ctx, call{
		method: http.MethodPost,
		route:  route,
		path:   expand(route, id),
		dest:   &payload,
	})
	if err != nil {
		return nil, err
	}
	return &payload, nil
}
