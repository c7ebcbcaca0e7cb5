package services

import (
	"time"
	"unicode/utf8"

	apperrors "github.com/YourPsychicArchitect/diligence-tracker/internal/common/errors"
	"github.com/YourPsychicArchitect/diligence-tracker/internal/common/middleware"
	"github.com/YourPsychicArchitect/diligence-tracker/internal/common/validation"
	"github.com/YourPsychicArchitect/diligence-tracker/internal/tracker/aggregation"
	"github.com/YourPsychicArchitect/diligence-tracker/internal/tracker/models"
	"github.com/YourPsychicArchitect/diligence-tracker/internal/tracker/repository"
	"github.com/YourPsychicArchitect/diligence-tracker/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTimezone is used whenever an identity has no stored preference, or
// a stored preference cannot be resolved. Aggregation always proceeds with
// this fallback rather than failing the request.
const DefaultTimezone = "UTC"

// Mirror is the contract for the optional external raw-data copy. Mirroring
// is best-effort and asynchronous; the local database stays the source of
// truth either way.
type Mirror interface {
	AppendEntry(email, task string, occurredAt time.Time) error
	RenameTask(email, oldName, newName string) error
	SpreadsheetURL(email string) (string, error)
}

var mirror Mirror

// SetMirror installs the external data mirror. Passing nil disables it.
func SetMirror(m Mirror) {
	mirror = m
}

// ========== TASK REGISTRY ==========

// ListTasks returns the identity's task names in creation order.
func ListTasks(email string) ([]string, error) {
	if !validation.ValidIdentity(email) {
		return nil, apperrors.InvalidIdentity(email)
	}
	return repository.ListTasks(email)
}

// CreateOrRenameTask collapses creation and rename into one primitive:
// oldName == newName registers a new task (a no-op if it already exists),
// otherwise the task currently named oldName is relabeled to newName.
func CreateOrRenameTask(email, oldName, newName string) error {
	if !validation.ValidIdentity(email) {
		return apperrors.InvalidIdentity(email)
	}
	if newName == "" || oldName == "" {
		return apperrors.NameEmpty()
	}
	// The limit counts characters, not bytes, so multibyte names get the
	// same 31 characters as ASCII ones
	if utf8.RuneCountInString(newName) > validation.MaxTaskNameLength {
		return apperrors.NameTooLong(newName, validation.MaxTaskNameLength)
	}

	if oldName == newName {
		existing, err := repository.FindTask(email, newName)
		if err != nil {
			return err
		}
		if existing != nil {
			// Re-creating a registered name is a no-op, never a second task
			return nil
		}
		_, err = repository.CreateTask(email, newName)
		if appErr, ok := err.(*apperrors.AppError); ok && appErr.Code == apperrors.CodeNameCollision {
			// Lost a race to an identical create; the task exists as asked
			return nil
		}
		return err
	}

	if err := repository.RenameTask(email, oldName, newName); err != nil {
		return err
	}

	if mirror != nil {
		go func() {
			if err := mirror.RenameTask(email, oldName, newName); err != nil {
				logger.Warn("mirror rename failed",
					zap.String("email", email),
					zap.String("task", newName),
					zap.Error(err),
				)
			}
		}()
	}
	return nil
}

// ========== EVENT LOG ==========

// RecordEntry appends one occurrence of the task at the given instant. The
// task must be currently registered; each accepted call adds exactly one
// event and concurrent calls are all kept.
func RecordEntry(email, task string, occurredAt time.Time) (*models.Entry, error) {
	if !validation.ValidIdentity(email) {
		return nil, apperrors.InvalidIdentity(email)
	}

	t, err := repository.FindTask(email, task)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperrors.UnknownTask(task)
	}

	entry, err := repository.AppendEntry(t.ID, occurredAt)
	if err != nil {
		return nil, err
	}
	middleware.CountEntryRecorded()

	if mirror != nil {
		go func() {
			if err := mirror.AppendEntry(email, task, occurredAt); err != nil {
				logger.Warn("mirror append failed",
					zap.String("email", email),
					zap.String("task", task),
					zap.Error(err),
				)
			}
		}()
	}
	return entry, nil
}

// ListEntries returns the task's recorded instants ascending, optionally
// restricted to the half-open range [from, to).
func ListEntries(email, task string, from, to *time.Time) ([]time.Time, error) {
	t, err := resolveTask(email, task)
	if err != nil {
		return nil, err
	}
	if from == nil && to == nil {
		return repository.ListEntryTimes(t.ID)
	}

	lo := time.Time{}
	hi := time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	if from != nil {
		lo = *from
	}
	if to != nil {
		hi = *to
	}
	return repository.ListEntryTimesRange(t.ID, lo, hi)
}

// ========== AGGREGATION ==========

// HourlyActivity returns today's 24 local-hour buckets for the task, under
// the identity's current timezone.
func HourlyActivity(email, task string, now time.Time) ([24]int, error) {
	t, err := resolveTask(email, task)
	if err != nil {
		return [24]int{}, err
	}

	instants, err := repository.ListEntryTimes(t.ID)
	if err != nil {
		return [24]int{}, err
	}

	return aggregation.HourlyActivity(instants, currentLocation(email), now), nil
}

// Statistics returns the task's day/week/month/all-time rollup under the
// identity's current timezone.
func Statistics(email, task string, now time.Time) (*models.StatisticsResponse, error) {
	t, err := resolveTask(email, task)
	if err != nil {
		return nil, err
	}

	instants, err := repository.ListEntryTimes(t.ID)
	if err != nil {
		return nil, err
	}

	stats := aggregation.Compute(instants, currentLocation(email), now)
	return &models.StatisticsResponse{
		TodayTotal:   stats.TodayTotal,
		WeekTotal:    stats.WeekTotal,
		MonthTotal:   stats.MonthTotal,
		AllTimeTotal: stats.AllTimeTotal,
		WeekData:     stats.WeekData,
	}, nil
}

// ========== TIMEZONE REGISTRY ==========

// GetTimezone returns the identity's timezone preference, defaulting to the
// caller-supplied fallback when unset.
func GetTimezone(email, fallback string) (string, error) {
	if !validation.ValidIdentity(email) {
		return "", apperrors.InvalidIdentity(email)
	}
	if fallback == "" {
		fallback = DefaultTimezone
	}
	return repository.GetTimezone(email, fallback)
}

// SetTimezone stores a timezone preference. It takes effect for every
// subsequent aggregation read; no previously computed view is re-bucketed.
func SetTimezone(email, timezone string) error {
	if !validation.ValidIdentity(email) {
		return apperrors.InvalidIdentity(email)
	}
	if timezone == "" {
		return apperrors.InvalidTimezone(timezone)
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return apperrors.InvalidTimezone(timezone)
	}
	return repository.SetTimezone(email, timezone)
}

// ========== IDENTITY ==========

// Login ensures the identity exists and hands back an opaque token. There is
// no authentication beyond the email itself; the token is a convenience for
// the frontend session.
func Login(email string) (*models.LoginResponse, error) {
	if !validation.ValidIdentity(email) {
		return nil, apperrors.InvalidIdentity(email)
	}
	if _, err := repository.EnsurePreference(email); err != nil {
		return nil, err
	}
	return &models.LoginResponse{Email: email, Token: uuid.NewString()}, nil
}

// SpreadsheetURL passes through the external raw-data link when a mirror is
// configured.
func SpreadsheetURL(email string) (string, error) {
	if !validation.ValidIdentity(email) {
		return "", apperrors.InvalidIdentity(email)
	}
	if mirror == nil {
		return "", apperrors.NotFound("spreadsheet")
	}
	url, err := mirror.SpreadsheetURL(email)
	if err != nil {
		return "", apperrors.NotFound("spreadsheet")
	}
	return url, nil
}

// ========== HELPERS ==========

func resolveTask(email, task string) (*models.Task, error) {
	if !validation.ValidIdentity(email) {
		return nil, apperrors.InvalidIdentity(email)
	}
	t, err := repository.FindTask(email, task)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperrors.UnknownTask(task)
	}
	return t, nil
}

// currentLocation resolves the identity's timezone for an aggregation read.
// A missing or unresolvable preference degrades to UTC with a warning; it
// never fails the request.
func currentLocation(email string) *time.Location {
	tz, err := repository.GetTimezone(email, DefaultTimezone)
	if err != nil {
		logger.Warn("timezone lookup failed, falling back to UTC",
			zap.String("email", email), zap.Error(err))
		return time.UTC
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		logger.Warn("stored timezone no longer resolves, falling back to UTC",
			zap.String("email", email), zap.String("timezone", tz), zap.Error(err))
		return time.UTC
	}
	return loc
}
