package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/specialistvlad/flowgridgo/internal/history"
)

type flowJSON struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Schedule    string      `json:"schedule,omitempty"`
	Manual      bool        `json:"manual"`
	Steps       int         `json:"steps"`
	NextRuns    []time.Time `json:"next_runs,omitempty"`
}

type runJSON struct {
	ID         string     `json:"id"`
	FlowName   string     `json:"flow"`
	Trigger    string     `json:"trigger"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

type stepJSON struct {
	StepID     string     `json:"step_id"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func toRunJSON(r *history.Run) runJSON {
	out := runJSON{
		ID:        r.ID,
		FlowName:  r.FlowName,
		Trigger:   r.Trigger,
		Status:    r.Status,
		Error:     r.Error,
		StartedAt: r.StartedAt,
	}
	if !r.FinishedAt.IsZero() {
		t := r.FinishedAt
		out.FinishedAt = &t
	}
	return out
}

func toStepJSON(r *history.StepResult) stepJSON {
	out := stepJSON{
		StepID: r.StepID,
		Status: r.Status,
		Error:  r.Error,
	}
	if !r.StartedAt.IsZero() {
		t := r.StartedAt
		out.StartedAt = &t
	}
	if !r.FinishedAt.IsZero() {
		t := r.FinishedAt
		out.FinishedAt = &t
	}
	return out
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListFlows(c *gin.Context) {
	infos := s.flows()
	flows := make([]flowJSON, 0, len(infos))
	for _, info := range infos {
		flows = append(flows, flowJSON{
			Name:        info.Name,
			Description: info.Description,
			Schedule:    info.Schedule,
			Manual:      info.Manual,
			Steps:       info.Steps,
			NextRuns:    info.NextRuns,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"flows":   flows,
		"count":   len(flows),
	})
}

func (s *Server) handleDispatch(c *gin.Context) {
	name := c.Param("name")

	// Dispatch takes no parameters. Anything beyond the flow name in the
	// path means the caller expects inputs this runner does not accept.
	if len(c.Request.URL.RawQuery) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "dispatch does not accept query parameters",
		})
		return
	}
	if c.Request.ContentLength != 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "dispatch does not accept a request body",
		})
		return
	}

	var flow *FlowInfo
	for _, info := range s.flows() {
		if info.Name == name {
			f := info
			flow = &f
			break
		}
	}
	if flow == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "flow not found",
		})
		return
	}
	if !flow.Manual {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   "flow does not allow manual dispatch",
		})
		return
	}

	runID, err := s.dispatch(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"run_id":  runID,
	})
}

func (s *Server) handleListRuns(c *gin.Context) {
	flowName := c.Query("flow")
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "limit must be a positive integer",
			})
			return
		}
		limit = parsed
	}

	runs, err := s.history.RecentRuns(c.Request.Context(), flowName, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	out := make([]runJSON, 0, len(runs))
	for _, r := range runs {
		out = append(out, toRunJSON(r))
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"runs":    out,
		"count":   len(out),
	})
}

func (s *Server) handleRunSteps(c *gin.Context) {
	runID := c.Param("id")

	steps, err := s.history.RunSteps(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	out := make([]stepJSON, 0, len(steps))
	for _, r := range steps {
		out = append(out, toStepJSON(r))
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"run_id":  runID,
		"steps":   out,
		"count":   len(out),
	})
}
