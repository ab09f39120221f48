package store

import "time"

var sampleTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

var taskRowColumns = []string{
	"id", "title", "description", "status", "priority",
	"due_date", "created_at", "updated_at", "owner_id", "category_id",
}
