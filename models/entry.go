package models

import (
	"encoding/json"
	"time"
)

// Minutes is a duration that marshals as a whole number of minutes.
type Minutes time.Duration

func (m Minutes) Duration() time.Duration {
	return time.Duration(m)
}

func (m Minutes) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(time.Duration(m) / time.Minute))
}

func (m *Minutes) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*m = Minutes(time.Duration(n) * time.Minute)
	return nil
}

type TimeEntry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Date        time.Time `gorm:"not null;type:date;index" json:"date"`
	Duration    Minutes   `gorm:"not null" json:"duration_min"`
	Description string    `gorm:"size:500" json:"description"`
	TaskID      uint      `gorm:"not null;index" json:"task_id"`
	Task        *Task     `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// EntryFilter narrows ListEntries. Set fields must all match.
type EntryFilter struct {
	UserID  *uint
	Since   *time.Time
	Date    *time.Time
	Weekday *time.Weekday
}

// EntryPatch is a partial update. Nil fields are left unchanged.
type EntryPatch struct {
	TaskID      *uint
	Date        *time.Time
	Duration    *time.Duration
	Description *string
}

// DateOf truncates a timestamp to its calendar date at UTC midnight.
// Entries and quota buckets are keyed on this form.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
