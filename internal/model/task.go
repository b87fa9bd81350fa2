package model

import "time"

// MaintenanceTask is a scheduled chore attached to an item. Recurring tasks
// have IntervalDays set; completing one rolls due_at forward instead of
// marking it done.
type MaintenanceTask struct {
	ID           int64      `json:"id"`
	ItemID       int64      `json:"item_id"`
	Title        string     `json:"title"`
	Notes        string     `json:"notes,omitempty"`
	DueAt        *time.Time `json:"due_at,omitempty"`
	IntervalDays int        `json:"interval_days,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Recurring reports whether the task repeats.
func (t *MaintenanceTask) Recurring() bool {
	return t.IntervalDays > 0
}
