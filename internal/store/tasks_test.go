package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/nalepka/internal/db"
)

func TestCreateTaskOwnership(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice")
	bob := seedUser(t, database, "bob")
	item := seedItem(t, database, alice.ID, "Bike")

	_, err := CreateTask(ctx, database, item.ID, bob.ID, "Oil chain", "", nil, 0)
	if !errors.Is(err, ErrOwnershipMismatch) {
		t.Errorf("expected ErrOwnershipMismatch, got %v", err)
	}

	_, err = CreateTask(ctx, database, 9999, alice.ID, "Oil chain", "", nil, 0)
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}

	task, err := CreateTask(ctx, database, item.ID, alice.ID, "Oil chain", "every spring", nil, 0)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.Title != "Oil chain" || task.Recurring() {
		t.Errorf("unexpected task %+v", task)
	}
}

func TestCompleteTaskOneOff(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := seedUser(t, database, "alice")
	item := seedItem(t, database, user.ID, "Bike")
	task, _ := CreateTask(ctx, database, item.ID, user.ID, "Oil chain", "", nil, 0)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := CompleteTask(ctx, database, task.ID, now); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}

	got, _ := GetTask(ctx, database, task.ID)
	if got.CompletedAt == nil {
		t.Error("expected one-off task to be marked completed")
	}

	open, _ := ListOpenTasksForUser(ctx, database, user.ID)
	if len(open) != 0 {
		t.Errorf("expected no open tasks, got %d", len(open))
	}
}

func TestCompleteTaskRecurring(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := seedUser(t, database, "alice")
	item := seedItem(t, database, user.ID, "Bike")

	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	task, _ := CreateTask(ctx, database, item.ID, user.ID, "Check tire pressure", "", &due, 30)

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	if err := CompleteTask(ctx, database, task.ID, now); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}

	got, _ := GetTask(ctx, database, task.ID)
	if got.CompletedAt != nil {
		t.Error("recurring task must stay open after completion")
	}
	want := now.AddDate(0, 0, 30)
	if got.DueAt == nil || !got.DueAt.Equal(want) {
		t.Errorf("expected due_at rolled to %v, got %v", want, got.DueAt)
	}
}

func TestListOpenTasksForUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice")
	bob := seedUser(t, database, "bob")
	aliceItem := seedItem(t, database, alice.ID, "Bike")
	bobItem := seedItem(t, database, bob.ID, "Kettle")

	CreateTask(ctx, database, aliceItem.ID, alice.ID, "Oil chain", "", nil, 0)
	CreateTask(ctx, database, bobItem.ID, bob.ID, "Descale", "", nil, 0)

	open, err := ListOpenTasksForUser(ctx, database, alice.ID)
	if err != nil {
		t.Fatalf("ListOpenTasksForUser: %v", err)
	}
	if len(open) != 1 || open[0].Title != "Oil chain" {
		t.Errorf("expected only alice's task, got %+v", open)
	}
}
