// Package ledger maintains the time-entry collection and enforces its
// invariants: the 24-hour daily quota per user, the active-task guard,
// ownership checks on mutation, and strictly increasing entry ids.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"worklog/apperr"
	"worklog/models"
)

// MaxDailyTotal is the hard ceiling on the sum of one user's entry
// durations for one calendar date. The boundary itself is allowed.
const MaxDailyTotal = 24 * time.Hour

// EntryStore captures the persistence interactions needed by the ledger.
type EntryStore interface {
	GetEntry(ctx context.Context, id uint) (*models.TimeEntry, error)
	ListEntries(ctx context.Context, filter models.EntryFilter) ([]models.TimeEntry, error)
	// SumForDay returns the total duration of a user's entries on a date,
	// skipping the entry with excludeID when non-zero.
	SumForDay(ctx context.Context, userID uint, date time.Time, excludeID uint) (time.Duration, error)
	CreateEntry(ctx context.Context, entry *models.TimeEntry) error
	UpdateEntry(ctx context.Context, entry *models.TimeEntry) error
	DeleteEntry(ctx context.Context, id uint) error
	MaxEntryID(ctx context.Context) (uint, error)
}

// TaskDirectory exposes task lookup.
type TaskDirectory interface {
	GetTask(ctx context.Context, id uint) (*models.Task, error)
}

// UserDirectory exposes user lookup.
type UserDirectory interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// Ledger serializes check-then-act sequences per (user, date) so that
// concurrent mutations can never jointly exceed the daily quota.
type Ledger struct {
	entries EntryStore
	tasks   TaskDirectory
	users   UserDirectory
	now     func() time.Time

	idMu     sync.Mutex
	idSeeded bool
	lastID   uint

	locksMu  sync.Mutex
	dayLocks map[string]*sync.Mutex
}

// New wires a Ledger. A nil clock defaults to time.Now.
func New(entries EntryStore, tasks TaskDirectory, users UserDirectory, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		entries:  entries,
		tasks:    tasks,
		users:    users,
		now:      now,
		dayLocks: make(map[string]*sync.Mutex),
	}
}

// Add records a new entry. The task must exist and be active, and the
// user's total for the effective date must stay within MaxDailyTotal.
// A nil date defaults to the current date.
func (l *Ledger) Add(ctx context.Context, userID, taskID uint, date *time.Time, duration time.Duration, description string) (*models.TimeEntry, error) {
	if duration <= 0 {
		return nil, apperr.Validation("duration must be positive")
	}
	if _, err := l.users.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("user %d: %w", userID, err)
	}
	task, err := l.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("task %d: %w", taskID, err)
	}
	if !task.IsActive {
		return nil, apperr.Validation("inactive task")
	}

	day := models.DateOf(l.now())
	if date != nil {
		day = models.DateOf(*date)
	}

	unlock := l.lockDays(userID, day)
	defer unlock()

	total, err := l.entries.SumForDay(ctx, userID, day, 0)
	if err != nil {
		return nil, err
	}
	if total+duration > MaxDailyTotal {
		return nil, apperr.Validation("quota exceeded")
	}

	id, err := l.reserveID(ctx)
	if err != nil {
		return nil, err
	}
	entry := &models.TimeEntry{
		ID:          id,
		Date:        day,
		Duration:    models.Minutes(duration),
		Description: description,
		TaskID:      taskID,
		UserID:      userID,
	}
	if err := l.entries.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Update applies a partial patch to an entry. Only the owner or an admin
// may mutate it. The quota is re-checked against the day's total with the
// entry's pre-edit duration excluded and its post-edit duration applied.
func (l *Ledger) Update(ctx context.Context, id, callerID uint, callerPerm models.Permission, patch models.EntryPatch) error {
	entry, err := l.entries.GetEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("entry %d: %w", id, err)
	}
	if callerID != entry.UserID && callerPerm != models.PermissionAdmin {
		return apperr.ErrForbidden
	}

	if patch.TaskID != nil && *patch.TaskID != entry.TaskID {
		task, err := l.tasks.GetTask(ctx, *patch.TaskID)
		if err != nil {
			return fmt.Errorf("task %d: %w", *patch.TaskID, err)
		}
		if !task.IsActive {
			return apperr.Validation("inactive task")
		}
	}

	newDate := entry.Date
	if patch.Date != nil {
		newDate = models.DateOf(*patch.Date)
	}
	newDuration := entry.Duration.Duration()
	if patch.Duration != nil {
		if *patch.Duration <= 0 {
			return apperr.Validation("duration must be positive")
		}
		newDuration = *patch.Duration
	}

	unlock := l.lockDays(entry.UserID, entry.Date, newDate)
	defer unlock()

	total, err := l.entries.SumForDay(ctx, entry.UserID, newDate, entry.ID)
	if err != nil {
		return err
	}
	if total+newDuration > MaxDailyTotal {
		return apperr.Validation("quota exceeded")
	}

	if patch.TaskID != nil {
		entry.TaskID = *patch.TaskID
	}
	entry.Date = newDate
	entry.Duration = models.Minutes(newDuration)
	if patch.Description != nil {
		entry.Description = *patch.Description
	}
	return l.entries.UpdateEntry(ctx, entry)
}

// Get returns one entry by id.
func (l *Ledger) Get(ctx context.Context, id uint) (*models.TimeEntry, error) {
	entry, err := l.entries.GetEntry(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("entry %d: %w", id, err)
	}
	return entry, nil
}

// Delete removes an entry. Deletion only lowers a day's sum, so no quota
// re-check is needed.
func (l *Ledger) Delete(ctx context.Context, id uint) error {
	if _, err := l.entries.GetEntry(ctx, id); err != nil {
		return fmt.Errorf("entry %d: %w", id, err)
	}
	return l.entries.DeleteEntry(ctx, id)
}

// List returns entries matching every set filter field, in id order.
// A user filter naming an unknown user fails with NotFound.
func (l *Ledger) List(ctx context.Context, filter models.EntryFilter) ([]models.TimeEntry, error) {
	if filter.UserID != nil {
		if _, err := l.users.GetUser(ctx, *filter.UserID); err != nil {
			return nil, fmt.Errorf("user %d: %w", *filter.UserID, err)
		}
	}
	return l.entries.ListEntries(ctx, filter)
}

// reserveID hands out the next strictly increasing entry id. The counter
// is seeded once from the store's max id; ids are never reused, even
// after deletion.
func (l *Ledger) reserveID(ctx context.Context) (uint, error) {
	l.idMu.Lock()
	defer l.idMu.Unlock()
	if !l.idSeeded {
		max, err := l.entries.MaxEntryID(ctx)
		if err != nil {
			return 0, err
		}
		l.lastID = max
		l.idSeeded = true
	}
	l.lastID++
	return l.lastID, nil
}

func dayKey(userID uint, day time.Time) string {
	return fmt.Sprintf("%d/%s", userID, day.Format("2006-01-02"))
}

// lockDays acquires the per-(user, date) mutex for each distinct day, in
// sorted key order so two callers can never deadlock on a day move.
func (l *Ledger) lockDays(userID uint, days ...time.Time) func() {
	keys := make([]string, 0, len(days))
	for _, d := range days {
		k := dayKey(userID, d)
		dup := false
		for _, seen := range keys {
			if seen == k {
				dup = true
				break
			}
		}
		if !dup {
			keys = append(keys, k)
		}
	}
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}

	locked := make([]*sync.Mutex, 0, len(keys))
	for _, k := range keys {
		l.locksMu.Lock()
		mu, ok := l.dayLocks[k]
		if !ok {
			mu = &sync.Mutex{}
			l.dayLocks[k] = mu
		}
		l.locksMu.Unlock()
		mu.Lock()
		locked = append(locked, mu)
	}
	return func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].Unlock()
		}
	}
}
