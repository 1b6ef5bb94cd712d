package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/five82/cadence/internal/lifecycle"
	"github.com/five82/cadence/internal/scheduler"
)

// targetsForPicker bounds the target list loaded alongside schedules.
const targetsForPicker = 100

func (s *Server) dashboard(c *gin.Context) {
	metrics, err := s.client(c).Metrics(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"metrics": metrics, "error": errorMessage(err)})
}

func (s *Server) listTargets(c *gin.Context) {
	opts := scheduler.ListOptions{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	targets, err := s.client(c).Targets().List(c.Request.Context(), opts)
	if err != nil {
		targets = emptyPage[scheduler.Target](opts.PageSize)
	}
	c.JSON(http.StatusOK, gin.H{"targets": targets, "error": errorMessage(err)})
}

func (s *Server) getTarget(c *gin.Context) {
	target, err := s.client(c).Targets().Get(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"target": target, "error": errorMessage(err)})
}

// listSchedules loads the page and the target picker concurrently. Either
// failure empties both.
func (s *Server) listSchedules(c *gin.Context) {
	filter := scheduler.ScheduleFilter{
		ListOptions: scheduler.ListOptions{
			Page:     queryInt(c, "page", 1),
			PageSize: queryInt(c, "page_size", 20),
		},
		Status:   lifecycle.ScheduleStatus(c.Query("status")),
		TargetID: c.Query("target_id"),
	}
	client := s.client(c)

	var (
		schedules *scheduler.Page[scheduler.Schedule]
		targets   *scheduler.Page[scheduler.Target]
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		schedules, err = client.Schedules().List(ctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		targets, err = client.Targets().List(ctx, scheduler.ListOptions{Page: 1, PageSize: targetsForPicker})
		return err
	})
	err := g.Wait()
	if err != nil {
		schedules = emptyPage[scheduler.Schedule](filter.PageSize)
		targets = emptyPage[scheduler.Target](targetsForPicker)
	}
	c.JSON(http.StatusOK, gin.H{"schedules": schedules, "targets": targets, "error": errorMessage(err)})
}

func (s *Server) listRuns(c *gin.Context) {
	filter := scheduler.RunFilter{
		ListOptions: scheduler.ListOptions{
			Page:     queryInt(c, "page", 1),
			PageSize: queryInt(c, "page_size", 10),
		},
		ScheduleID: c.Query("schedule_id"),
		Status:     lifecycle.RunStatus(c.Query("status")),
		ErrorType:  lifecycle.ErrorType(c.Query("error_type")),
	}
	runs, err := s.client(c).Runs().List(c.Request.Context(), filter)
	if err != nil {
		runs = emptyPage[scheduler.Run](filter.PageSize)
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "error": errorMessage(err)})
}

func (s *Server) getRun(c *gin.Context) {
	run, err := s.client(c).Runs().Get(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"run": run, "error": errorMessage(err)})
}
