package models

import (
	"time"
)

// Task is a named, renamable grouping key for entries within one identity.
// Names are unique per email at any instant, compared case-sensitively.
// Tasks are never deleted; a rename relabels the key and nothing else.
type Task struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"index:idx_task_email_name,unique;not null" json:"email"`
	Name      string    `gorm:"index:idx_task_email_name,unique;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Entry is one immutable "I did it" occurrence. Entries are append-only:
// once written they are never updated or deleted. They reference the task
// by ID, so renaming a task leaves every entry untouched.
type Entry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EventID    string    `gorm:"uniqueIndex;not null" json:"event_id"`
	TaskID     uint      `gorm:"index;not null" json:"task_id"`
	OccurredAt time.Time `gorm:"index;not null" json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserPreference holds the single mutable timezone preference per identity.
// An empty Timezone means the identity never chose one, which keeps
// caller-supplied fallbacks effective; it is only filled in by an explicit
// timezone change.
type UserPreference struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ========== REQUEST / RESPONSE MODELS ==========

type EntryRequest struct {
	Email string `json:"email" binding:"required,email"`
	Task  string `json:"task" binding:"required"`
}

// Empty task names pass binding so the service can report the specific
// NAME_EMPTY code rather than a generic binding failure.
type UpdateTaskRequest struct {
	Email   string `json:"email" binding:"required,email"`
	OldTask string `json:"old_task"`
	NewTask string `json:"new_task"`
}

type TimezoneRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Timezone string `json:"timezone" binding:"required"`
}

type LoginRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type LoginResponse struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type TasksResponse struct {
	Tasks []string `json:"tasks"`
}

type EntriesResponse struct {
	Entries []string `json:"entries"`
}

type HourlyActivityResponse struct {
	HourlyActivity [24]int `json:"hourly_activity"`
}

// DayCount is one weekday bucket of the current local week.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// StatisticsResponse mirrors the shape the frontend charts consume.
type StatisticsResponse struct {
	TodayTotal   int         `json:"today_total"`
	WeekTotal    int         `json:"week_total"`
	MonthTotal   int         `json:"month_total"`
	AllTimeTotal int         `json:"all_time_total"`
	WeekData     [7]DayCount `json:"week_data"`
}

type TimezoneResponse struct {
	Timezone string `json:"timezone"`
}

type SpreadsheetURLResponse struct {
	URL string `json:"url"`
}
