package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/YourPsychicArchitect/diligence-tracker/internal/common/database"
	"github.com/YourPsychicArchitect/diligence-tracker/internal/tracker/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	database.DB = setupTestDB(t)
	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Register routes
	api := router.Group("/api")
	api.POST("/login", Login)
	api.GET("/tasks", GetTasks)
	api.POST("/update_task", UpdateTask)
	api.POST("/entry", AddEntry)
	api.GET("/entries", GetEntries)
	api.GET("/hourly_activity", GetHourlyActivity)
	api.GET("/statistics", GetStatistics)
	api.GET("/get_timezone", GetTimezone)
	api.POST("/set_timezone", SetTimezone)
	api.GET("/spreadsheet_url", GetSpreadsheetURL)

	return router
}

func setupTestDB(t *testing.T) *gorm.DB {
	// For testing, we'll use an in-memory SQLite database
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Task{},
		&models.Entry{},
		&models.UserPreference{},
	))

	return db
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func getPath(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createTask(t *testing.T, router *gin.Engine, email, name string) {
	t.Helper()
	w := postJSON(t, router, "/api/update_task", models.UpdateTaskRequest{
		Email: email, OldTask: name, NewTask: name,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func recordEntry(t *testing.T, router *gin.Engine, email, task string) {
	t.Helper()
	w := postJSON(t, router, "/api/entry", models.EntryRequest{Email: email, Task: task})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestLoginEndpoint(t *testing.T) {
	router := setupTestRouter(t)

	w := postJSON(t, router, "/api/login", models.LoginRequest{Email: "a@x.com"})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "a@x.com", resp.Email)
	assert.NotEmpty(t, resp.Token)
}

func TestTaskLifecycle(t *testing.T) {
	router := setupTestRouter(t)

	createTask(t, router, "a@x.com", "Meditate")
	createTask(t, router, "a@x.com", "Write")

	w := getPath(router, "/api/tasks?email=a@x.com")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.TasksResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Meditate", "Write"}, resp.Tasks)

	// Rename keeps creation order and drops the old name
	w = postJSON(t, router, "/api/update_task", models.UpdateTaskRequest{
		Email: "a@x.com", OldTask: "Meditate", NewTask: "Meditation",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = getPath(router, "/api/tasks?email=a@x.com")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Meditation", "Write"}, resp.Tasks)
}

func TestTaskValidationErrors(t *testing.T) {
	router := setupTestRouter(t)

	createTask(t, router, "a@x.com", "Existing")

	tests := []struct {
		name           string
		request        models.UpdateTaskRequest
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "empty name",
			request: models.UpdateTaskRequest{
				Email: "a@x.com", OldTask: "", NewTask: "",
			},
			expectedStatus: 400,
			expectedCode:   "NAME_EMPTY",
		},
		{
			name: "name too long",
			request: models.UpdateTaskRequest{
				Email: "a@x.com", OldTask: "ThisIsExactlyThirtyTwoCharacters", NewTask: "ThisIsExactlyThirtyTwoCharacters",
			},
			expectedStatus: 400,
			expectedCode:   "NAME_TOO_LONG",
		},
		{
			name: "rename unknown task",
			request: models.UpdateTaskRequest{
				Email: "a@x.com", OldTask: "Missing", NewTask: "Renamed",
			},
			expectedStatus: 404,
			expectedCode:   "UNKNOWN_TASK",
		},
		{
			name: "collision with registered task",
			request: models.UpdateTaskRequest{
				Email: "a@x.com", OldTask: "Other", NewTask: "Existing",
			},
			expectedStatus: 409,
			expectedCode:   "NAME_COLLISION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.expectedCode == "NAME_COLLISION" {
				createTask(t, router, "a@x.com", "Other")
			}

			w := postJSON(t, router, "/api/update_task", tt.request)
			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectedCode, resp["code"])
		})
	}
}

func TestEntryRecordingAndStatistics(t *testing.T) {
	router := setupTestRouter(t)

	createTask(t, router, "a@x.com", "Meditate")
	for i := 0; i < 3; i++ {
		recordEntry(t, router, "a@x.com", "Meditate")
	}

	w := getPath(router, "/api/statistics?email=a@x.com&task=Meditate")
	assert.Equal(t, http.StatusOK, w.Code)

	var stats models.StatisticsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.AllTimeTotal)
	assert.Equal(t, 3, stats.TodayTotal)
	assert.Len(t, stats.WeekData, 7)
	assert.Equal(t, "Monday", stats.WeekData[0].Day)

	// Entries recorded just now land in today's hourly buckets
	w = getPath(router, "/api/hourly_activity?email=a@x.com&task=Meditate")
	assert.Equal(t, http.StatusOK, w.Code)

	var hourly models.HourlyActivityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hourly))
	total := 0
	for _, count := range hourly.HourlyActivity {
		total += count
	}
	assert.Equal(t, 3, total)

	// Raw entries are exposed ascending
	w = getPath(router, "/api/entries?email=a@x.com&task=Meditate")
	assert.Equal(t, http.StatusOK, w.Code)

	var entries models.EntriesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Len(t, entries.Entries, 3)
}

func TestStatisticsSurviveRename(t *testing.T) {
	router := setupTestRouter(t)

	createTask(t, router, "a@x.com", "Meditate")
	for i := 0; i < 3; i++ {
		recordEntry(t, router, "a@x.com", "Meditate")
	}

	w := postJSON(t, router, "/api/update_task", models.UpdateTaskRequest{
		Email: "a@x.com", OldTask: "Meditate", NewTask: "Meditation",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = getPath(router, "/api/statistics?email=a@x.com&task=Meditation")
	assert.Equal(t, http.StatusOK, w.Code)

	var stats models.StatisticsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.AllTimeTotal)

	w = getPath(router, "/api/statistics?email=a@x.com&task=Meditate")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecordEntryUnknownTask(t *testing.T) {
	router := setupTestRouter(t)

	w := postJSON(t, router, "/api/entry", models.EntryRequest{
		Email: "a@x.com", Task: "Never registered",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatisticsForEmptyTask(t *testing.T) {
	router := setupTestRouter(t)

	// Registered but never used: zeros, not an error
	createTask(t, router, "a@x.com", "Untouched")

	w := getPath(router, "/api/statistics?email=a@x.com&task=Untouched")
	assert.Equal(t, http.StatusOK, w.Code)

	var stats models.StatisticsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Zero(t, stats.AllTimeTotal)
	assert.Zero(t, stats.TodayTotal)
}

func TestTimezoneEndpoints(t *testing.T) {
	router := setupTestRouter(t)

	// Default before anything is set
	w := getPath(router, "/api/get_timezone?email=a@x.com")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.TimezoneResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "UTC", resp.Timezone)

	// Client-observed fallback
	w = getPath(router, "/api/get_timezone?email=a@x.com&fallback=Europe/Berlin")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Europe/Berlin", resp.Timezone)

	w = postJSON(t, router, "/api/set_timezone", models.TimezoneRequest{
		Email: "a@x.com", Timezone: "America/New_York",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = getPath(router, "/api/get_timezone?email=a@x.com")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "America/New_York", resp.Timezone)
}

func TestSetTimezoneInvalid(t *testing.T) {
	router := setupTestRouter(t)

	w := postJSON(t, router, "/api/set_timezone", models.TimezoneRequest{
		Email: "a@x.com", Timezone: "Not/AZone",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_TIMEZONE", resp["code"])
}

func TestMissingEmail(t *testing.T) {
	router := setupTestRouter(t)

	tests := []struct {
		name string
		path string
	}{
		{"tasks", "/api/tasks"},
		{"statistics", "/api/statistics?task=X"},
		{"hourly", "/api/hourly_activity?task=X"},
		{"timezone", "/api/get_timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := getPath(router, tt.path)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestSpreadsheetURLAbsent(t *testing.T) {
	router := setupTestRouter(t)

	// No mirror configured: link is absent, not an error in the engine
	w := getPath(router, "/api/spreadsheet_url?email=a@x.com")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
