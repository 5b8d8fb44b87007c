package models

import (
	"time"

	"github.com/google/uuid"
)

// Task is a single onboarding to-do owned by exactly one user within a
// program. Tasks are never physically removed; Deleted flips to true.
type Task struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	ProgramID    uuid.UUID  `json:"program_id"`
	Label        string     `json:"label"`
	ScheduledFor *time.Time `json:"scheduled_for"`
	Done         bool       `json:"done"`
	Deleted      bool       `json:"deleted"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
