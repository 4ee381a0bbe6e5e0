package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StringArray stores an ordered list of strings as a JSON text column.
// MySQL has no native array type, so the value is serialized on write and
// parsed back on read. NULL columns scan to an empty slice.
type StringArray []string

// Value implements driver.Valuer.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		a = StringArray{}
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (a *StringArray) Scan(src interface{}) error {
	if src == nil {
		*a = StringArray{}
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StringArray", src)
	}
	if len(b) == 0 {
		*a = StringArray{}
		return nil
	}
	return json.Unmarshal(b, a)
}

// LogEntry is one work day's record: the clock-in/out interval plus the
// narrative fields, owned by a single user. total_hours is derived from the
// time pair at write time and is never accepted from the client.
type LogEntry struct {
	ID                string      `gorm:"primaryKey;size:36" json:"id"`
	UserID            uint        `gorm:"index;not null" json:"user_id"`
	Date              string      `gorm:"size:10;not null;index" json:"date"`
	WeekNumber        int         `gorm:"not null" json:"week_number"`
	DayNumber         int         `gorm:"not null" json:"day_number"`
	TimeIn            string      `gorm:"type:time" json:"time_in"`
	TimeOut           string      `gorm:"type:time" json:"time_out"`
	TotalHours        float64     `gorm:"default:0" json:"total_hours"`
	TasksAccomplished StringArray `gorm:"type:text" json:"tasks_accomplished"`
	KeyLearnings      StringArray `gorm:"type:text" json:"key_learnings"`
	Challenges        string      `gorm:"type:text" json:"challenges"`
	GoalsForTomorrow  string      `gorm:"type:text" json:"goals_for_tomorrow"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// TableName keeps the legacy table name used by earlier deployments.
func (LogEntry) TableName() string { return "ojt_logs" }

// BeforeCreate assigns the immutable entry id.
func (e *LogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// AfterFind normalizes rows coming back from the store: TIME columns return
// HH:MM:SS which is trimmed to the canonical HH:MM form, and NULL array
// columns become empty slices.
func (e *LogEntry) AfterFind(tx *gorm.DB) error {
	if len(e.TimeIn) > 5 {
		e.TimeIn = e.TimeIn[:5]
	}
	if len(e.TimeOut) > 5 {
		e.TimeOut = e.TimeOut[:5]
	}
	if e.TasksAccomplished == nil {
		e.TasksAccomplished = StringArray{}
	}
	if e.KeyLearnings == nil {
		e.KeyLearnings = StringArray{}
	}
	return nil
}

// LogEntryForm is the client payload for create and update. Times are
// free-form clock strings; the repository derives total_hours from them.
type LogEntryForm struct {
	Date              string   `json:"date" binding:"required"`
	WeekNumber        int      `json:"week_number" binding:"required,min=1"`
	DayNumber         int      `json:"day_number" binding:"required,min=1"`
	TimeIn            string   `json:"time_in" binding:"required"`
	TimeOut           string   `json:"time_out" binding:"required"`
	TasksAccomplished []string `json:"tasks_accomplished"`
	KeyLearnings      []string `json:"key_learnings"`
	Challenges        string   `json:"challenges"`
	GoalsForTomorrow  string   `json:"goals_for_tomorrow"`
}
