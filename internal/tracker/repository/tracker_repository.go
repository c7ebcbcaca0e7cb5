package repository

import (
	"errors"
	"time"

	"github.com/YourPsychicArchitect/diligence-tracker/internal/common/database"
	apperrors "github.com/YourPsychicArchitect/diligence-tracker/internal/common/errors"
	"github.com/YourPsychicArchitect/diligence-tracker/internal/tracker/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ========== TASK REGISTRY ==========

// FindTask looks up a task by its current name. Returns nil without error
// when the name is not registered for the identity.
func FindTask(email, name string) (*models.Task, error) {
	var task models.Task
	result := database.DB.Where("email = ? AND name = ?", email, name).First(&task)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Internal("failed to look up task", result.Error.Error())
	}
	return &task, nil
}

// ListTasks returns the identity's task names in creation order.
func ListTasks(email string) ([]string, error) {
	var tasks []models.Task
	result := database.DB.Where("email = ?", email).Order("id ASC").Find(&tasks)
	if result.Error != nil {
		return nil, apperrors.Internal("failed to list tasks", result.Error.Error())
	}

	names := make([]string, 0, len(tasks))
	for _, t := range tasks {
		names = append(names, t.Name)
	}
	return names, nil
}

// CreateTask registers a new task name for the identity. A concurrent
// creation of the same name loses to the unique index and reports a
// collision.
func CreateTask(email, name string) (*models.Task, error) {
	task := &models.Task{Email: email, Name: name}
	result := database.DB.Create(task)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NameCollision(name)
		}
		return nil, apperrors.Internal("failed to create task", result.Error.Error())
	}
	return task, nil
}

// RenameTask relabels the grouping key in one transaction: the old name must
// still be registered and the new name must not collide with a different
// task. Entries reference the task by ID, so no entry row is touched and no
// event can be lost or attributed to neither name. The last of two racing
// renames onto the same name fails with a collision.
func RenameTask(email, oldName, newName string) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.Where("email = ? AND name = ?", email, oldName).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.UnknownTask(oldName)
			}
			return apperrors.Internal("failed to look up task", err.Error())
		}

		var count int64
		if err := tx.Model(&models.Task{}).
			Where("email = ? AND name = ? AND id <> ?", email, newName, task.ID).
			Count(&count).Error; err != nil {
			return apperrors.Internal("failed to check task name", err.Error())
		}
		if count > 0 {
			return apperrors.NameCollision(newName)
		}

		if err := tx.Model(&task).Update("name", newName).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.NameCollision(newName)
			}
			return apperrors.Internal("failed to rename task", err.Error())
		}
		return nil
	})
}

// ========== EVENT LOG ==========

// AppendEntry records one occurrence. Entries are independent inserts, so
// concurrent appends for the same task are all durably recorded; there is no
// read-modify-write of any aggregate anywhere in the log.
func AppendEntry(taskID uint, occurredAt time.Time) (*models.Entry, error) {
	entry := &models.Entry{
		EventID:    uuid.NewString(),
		TaskID:     taskID,
		OccurredAt: occurredAt.UTC(),
	}
	result := database.DB.Create(entry)
	if result.Error != nil {
		return nil, apperrors.Internal("failed to record entry", result.Error.Error())
	}
	return entry, nil
}

// ListEntryTimes returns every recorded instant for a task, ascending.
func ListEntryTimes(taskID uint) ([]time.Time, error) {
	return listEntryTimes(database.DB.Where("task_id = ?", taskID))
}

// ListEntryTimesRange returns instants in the half-open range [from, to),
// ascending.
func ListEntryTimesRange(taskID uint, from, to time.Time) ([]time.Time, error) {
	return listEntryTimes(database.DB.
		Where("task_id = ? AND occurred_at >= ? AND occurred_at < ?", taskID, from.UTC(), to.UTC()))
}

func listEntryTimes(query *gorm.DB) ([]time.Time, error) {
	var entries []models.Entry
	result := query.Order("occurred_at ASC").Find(&entries)
	if result.Error != nil {
		return nil, apperrors.Internal("failed to fetch entries", result.Error.Error())
	}

	times := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		times = append(times, e.OccurredAt)
	}
	return times, nil
}

// ========== TIMEZONE REGISTRY ==========

// GetTimezone returns the identity's timezone preference, or the supplied
// fallback when none has been set.
func GetTimezone(email, fallback string) (string, error) {
	var pref models.UserPreference
	result := database.DB.Where("email = ?", email).First(&pref)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return fallback, nil
		}
		return "", apperrors.Internal("failed to fetch timezone", result.Error.Error())
	}
	if pref.Timezone == "" {
		return fallback, nil
	}
	return pref.Timezone, nil
}

// SetTimezone stores the identity's timezone preference. Takes effect on the
// next aggregation read; nothing previously computed is re-bucketed because
// nothing aggregated is ever persisted.
func SetTimezone(email, timezone string) error {
	pref := &models.UserPreference{Email: email, Timezone: timezone}
	result := database.DB.
		Where(models.UserPreference{Email: email}).
		Assign(models.UserPreference{Timezone: timezone}).
		FirstOrCreate(pref)
	if result.Error != nil {
		return apperrors.Internal("failed to set timezone", result.Error.Error())
	}
	return nil
}

// EnsurePreference creates the identity's preference row if it does not
// exist yet. The timezone is left unset so fallbacks stay effective until
// the identity explicitly chooses a zone.
func EnsurePreference(email string) (*models.UserPreference, error) {
	pref := &models.UserPreference{Email: email}
	result := database.DB.
		Where(models.UserPreference{Email: email}).
		FirstOrCreate(pref)
	if result.Error != nil {
		return nil, apperrors.Internal("failed to ensure preference", result.Error.Error())
	}
	return pref, nil
}
