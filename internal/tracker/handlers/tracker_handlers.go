package handlers

import (
	"net/http"
	"time"

	apperrors "github.com/YourPsychicArchitect/diligence-tracker/internal/common/errors"
	"github.com/YourPsychicArchitect/diligence-tracker/internal/common/middleware"
	"github.com/YourPsychicArchitect/diligence-tracker/internal/tracker/models"
	"github.com/YourPsychicArchitect/diligence-tracker/internal/tracker/services"
	"github.com/gin-gonic/gin"
)

// GetTasks returns the identity's task names in creation order.
// GET /api/tasks?email=
func GetTasks(c *gin.Context) {
	email := c.Query("email")

	tasks, err := services.ListTasks(email)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	if tasks == nil {
		tasks = []string{}
	}

	c.JSON(http.StatusOK, models.TasksResponse{Tasks: tasks})
}

// UpdateTask creates or renames a task. Creation is requested by passing the
// same name twice; a rename relabels the key without touching any entry.
// POST /api/update_task
func UpdateTask(c *gin.Context) {
	var req models.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.JSONErrorResponse(c, apperrors.BadRequest(err.Error()))
		return
	}

	if err := services.CreateOrRenameTask(req.Email, req.OldTask, req.NewTask); err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AddEntry records one occurrence of the task at the current instant.
// POST /api/entry
func AddEntry(c *gin.Context) {
	var req models.EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.JSONErrorResponse(c, apperrors.BadRequest(err.Error()))
		return
	}

	if _, err := services.RecordEntry(req.Email, req.Task, time.Now()); err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetEntries returns the task's raw recorded instants, ascending. Optional
// from/to query params (RFC 3339) restrict to the half-open range [from, to).
// GET /api/entries?email=&task=
func GetEntries(c *gin.Context) {
	email := c.Query("email")
	task := c.Query("task")

	from, ok := parseTimeParam(c, "from")
	if !ok {
		return
	}
	to, ok := parseTimeParam(c, "to")
	if !ok {
		return
	}

	instants, err := services.ListEntries(email, task, from, to)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	entries := make([]string, 0, len(instants))
	for _, instant := range instants {
		entries = append(entries, instant.Format(time.RFC3339))
	}

	c.JSON(http.StatusOK, models.EntriesResponse{Entries: entries})
}

// GetHourlyActivity returns today's 24 local-hour buckets for the task.
// GET /api/hourly_activity?email=&task=
func GetHourlyActivity(c *gin.Context) {
	email := c.Query("email")
	task := c.Query("task")

	buckets, err := services.HourlyActivity(email, task, time.Now())
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, models.HourlyActivityResponse{HourlyActivity: buckets})
}

// GetStatistics returns day/week/month/all-time totals plus the weekday
// series for the current week.
// GET /api/statistics?email=&task=
func GetStatistics(c *gin.Context) {
	email := c.Query("email")
	task := c.Query("task")

	stats, err := services.Statistics(email, task, time.Now())
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// SetTimezone stores the identity's timezone preference.
// POST /api/set_timezone
func SetTimezone(c *gin.Context) {
	var req models.TimezoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.JSONErrorResponse(c, apperrors.BadRequest(err.Error()))
		return
	}

	if err := services.SetTimezone(req.Email, req.Timezone); err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetTimezone returns the identity's timezone preference. The optional
// fallback param lets the client supply its observed local zone as the
// default for identities that never set one.
// GET /api/get_timezone?email=[&fallback=]
func GetTimezone(c *gin.Context) {
	email := c.Query("email")
	fallback := c.Query("fallback")

	tz, err := services.GetTimezone(email, fallback)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, models.TimezoneResponse{Timezone: tz})
}

// Login ensures the identity exists and returns an opaque session token.
// POST /api/login
func Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.JSONErrorResponse(c, apperrors.BadRequest(err.Error()))
		return
	}

	resp, err := services.Login(req.Email)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetSpreadsheetURL returns the external raw-data link, when one exists.
// GET /api/spreadsheet_url?email=
func GetSpreadsheetURL(c *gin.Context) {
	email := c.Query("email")

	url, err := services.SpreadsheetURL(email)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SpreadsheetURLResponse{URL: url})
}

func parseTimeParam(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		middleware.JSONErrorResponse(c, apperrors.BadRequest(name+" must be RFC 3339"))
		return nil, false
	}
	return &t, true
}
