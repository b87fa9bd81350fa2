package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/nalepka/internal/model"
)

// CreateTask schedules a maintenance task for an item. The item must belong
// to the acting user.
func CreateTask(ctx context.Context, db *sql.DB, itemID, userID int64, title, notes string, dueAt *time.Time, intervalDays int) (*model.MaintenanceTask, error) {
	var ownerID int64
	err := db.QueryRowContext(ctx,
		`SELECT user_id FROM items WHERE id = ? AND deleted_at IS NULL`, itemID,
	).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checking item: %w", err)
	}
	if ownerID != userID {
		return nil, ErrOwnershipMismatch
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO maintenance_tasks (item_id, title, notes, due_at, interval_days)
		 VALUES (?, ?, ?, ?, ?)`,
		itemID, title, notes, dueAt, intervalDays,
	)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting task id: %w", err)
	}

	return GetTask(ctx, db, id)
}

// GetTask returns a task by ID.
func GetTask(ctx context.Context, db *sql.DB, id int64) (*model.MaintenanceTask, error) {
	t := &model.MaintenanceTask{}
	var notes sql.NullString
	var interval sql.NullInt64
	err := db.QueryRowContext(ctx,
		`SELECT id, item_id, title, notes, due_at, interval_days, completed_at, created_at
		 FROM maintenance_tasks WHERE id = ?`, id,
	).Scan(&t.ID, &t.ItemID, &t.Title, &notes, &t.DueAt, &interval, &t.CompletedAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting task: %w", err)
	}
	t.Notes = notes.String
	t.IntervalDays = int(interval.Int64)
	return t, nil
}

// ListTasksForItem returns all tasks scheduled for an item.
func ListTasksForItem(ctx context.Context, db *sql.DB, itemID int64) ([]model.MaintenanceTask, error) {
	return listTasks(ctx, db,
		`SELECT id, item_id, title, notes, due_at, interval_days, completed_at, created_at
		 FROM maintenance_tasks WHERE item_id = ? ORDER BY due_at`, itemID)
}

// ListOpenTasksForUser returns a user's uncompleted tasks across all their
// items, soonest due first.
func ListOpenTasksForUser(ctx context.Context, db *sql.DB, userID int64) ([]model.MaintenanceTask, error) {
	return listTasks(ctx, db,
		`SELECT t.id, t.item_id, t.title, t.notes, t.due_at, t.interval_days, t.completed_at, t.created_at
		 FROM maintenance_tasks t
		 JOIN items i ON i.id = t.item_id
		 WHERE i.user_id = ? AND i.deleted_at IS NULL AND t.completed_at IS NULL
		 ORDER BY t.due_at`, userID)
}

func listTasks(ctx context.Context, db *sql.DB, query string, args ...any) ([]model.MaintenanceTask, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.MaintenanceTask
	for rows.Next() {
		var t model.MaintenanceTask
		var notes sql.NullString
		var interval sql.NullInt64
		if err := rows.Scan(&t.ID, &t.ItemID, &t.Title, &notes, &t.DueAt, &interval, &t.CompletedAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		t.Notes = notes.String
		t.IntervalDays = int(interval.Int64)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CompleteTask finishes a task. One-off tasks get completed_at set; recurring
// tasks instead roll due_at forward by their interval and stay open.
func CompleteTask(ctx context.Context, db *sql.DB, id int64, now time.Time) error {
	task, err := GetTask(ctx, db, id)
	if err != nil {
		return err
	}
	if task == nil {
		return fmt.Errorf("task %d not found", id)
	}

	if task.Recurring() {
		next := now.AddDate(0, 0, task.IntervalDays)
		_, err = db.ExecContext(ctx,
			`UPDATE maintenance_tasks SET due_at = ? WHERE id = ?`,
			next, id,
		)
	} else {
		_, err = db.ExecContext(ctx,
			`UPDATE maintenance_tasks SET completed_at = ? WHERE id = ?`,
			now, id,
		)
	}
	if err != nil {
		return fmt.Errorf("completing task: %w", err)
	}
	return nil
}

// DeleteTask removes a task.
func DeleteTask(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM maintenance_tasks WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return nil
}
