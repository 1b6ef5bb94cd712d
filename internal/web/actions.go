package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/five82/cadence/internal/auth"
	"github.com/five82/cadence/internal/scheduler"
)

// defaultTimeoutSeconds fills an empty or unparsable timeout field.
const defaultTimeoutSeconds = 30

// actionResult is the envelope every form action answers with.
type actionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func respond(c *gin.Context, message string, err error) {
	if err != nil {
		c.JSON(http.StatusOK, actionResult{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, actionResult{Success: true, Message: message})
}

func unknownAction(c *gin.Context) {
	c.JSON(http.StatusOK, actionResult{Success: false, Message: "Unknown action"})
}

// targetAction handles the targets form: create, update or delete by intent.
// Blank name, url or method fields are left out of an update.
func (s *Server) targetAction(c *gin.Context) {
	ctx := c.Request.Context()
	targets := s.client(c).Targets()

	switch c.PostForm("intent") {
	case "create":
		_, err := targets.Create(ctx, targetForm(c))
		respond(c, "Target created successfully", err)
	case "update":
		form := targetForm(c)
		_, err := targets.Update(ctx, c.PostForm("id"), scheduler.TargetUpdate{
			Name:           optional(form.Name),
			URL:            optional(form.URL),
			Method:         optional(form.Method),
			Headers:        form.Headers,
			Body:           form.Body,
			TimeoutSeconds: form.TimeoutSeconds,
			Description:    form.Description,
		})
		respond(c, "Target updated successfully", err)
	case "delete":
		err := targets.Delete(ctx, c.PostForm("id"))
		respond(c, "Target deleted successfully", err)
	default:
		unknownAction(c)
	}
}

// targetForm reads the shared create/update fields. Malformed headers JSON
// is dropped rather than rejected.
func targetForm(c *gin.Context) scheduler.TargetCreate {
	timeout := atoiOr(c.PostForm("timeout_seconds"), 0)
	if timeout == 0 {
		timeout = defaultTimeoutSeconds
	}
	in := scheduler.TargetCreate{
		Name:           c.PostForm("name"),
		URL:            c.PostForm("url"),
		Method:         c.PostForm("method"),
		TimeoutSeconds: &timeout,
		Description:    optional(c.PostForm("description")),
		Body:           optional(c.PostForm("body")),
	}
	if raw := c.PostForm("headers"); raw != "" {
		var headers map[string]string
		if err := json.Unmarshal([]byte(raw), &headers); err == nil {
			in.Headers = headers
		}
	}
	return in
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// scheduleAction handles the schedules form. Pause and resume are requested
// of the service; the resulting status is whatever it reports next.
func (s *Server) scheduleAction(c *gin.Context) {
	ctx := c.Request.Context()
	schedules := s.client(c).Schedules()
	id := c.PostForm("id")

	switch c.PostForm("intent") {
	case "create":
		in := scheduler.ScheduleCreate{
			TargetID:        c.PostForm("target_id"),
			ScheduleType:    scheduler.ScheduleType(c.PostForm("schedule_type")),
			IntervalSeconds: atoiOr(c.PostForm("interval_seconds"), 0),
		}
		// an unparsable duration is left unset and rejected as missing
		if in.ScheduleType == scheduler.ScheduleWindow {
			if duration, err := strconv.Atoi(strings.TrimSpace(c.PostForm("duration_seconds"))); err == nil {
				in.DurationSeconds = &duration
			}
		}
		_, err := schedules.Create(ctx, in)
		respond(c, "Schedule created", err)
	case "pause":
		_, err := schedules.Pause(ctx, id)
		respond(c, "Schedule paused", err)
	case "resume":
		_, err := schedules.Resume(ctx, id)
		respond(c, "Schedule resumed", err)
	case "delete":
		err := schedules.Delete(ctx, id)
		respond(c, "Schedule deleted", err)
	default:
		unknownAction(c)
	}
}

// sessionRequest carries tokens issued by the identity provider.
type sessionRequest struct {
	AccessToken  string `json:"access_token" binding:"required"`
	RefreshToken string `json:"refresh_token" binding:"required"`
	ExpiresIn    int    `json:"expires_in" binding:"required,gt=0"`
}

// login stores a token pair as session cookies on the browser. expires_in is
// the lifetime in seconds and must be positive.
func (s *Server) login(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, actionResult{Success: false, Message: err.Error()})
		return
	}
	auth.SetCookies(c.Writer, auth.Tokens{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		ExpiresIn:    time.Duration(req.ExpiresIn) * time.Second,
	}, s.now())
	s.logger.Info("session established", nil)
	c.JSON(http.StatusOK, actionResult{Success: true, Message: "Signed in"})
}

func (s *Server) logout(c *gin.Context) {
	auth.ClearCookies(c.Writer)
	c.JSON(http.StatusOK, actionResult{Success: true, Message: "Signed out"})
}
