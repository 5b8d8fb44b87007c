package models

// Lifecycle status constants shared by programs and templates.
// Status moves forward only; archive/restore is a separate overlay on
// deleted_at and never touches status.
const (
	StatusDraft      = "draft"
	StatusPublished  = "published"
	StatusDeprecated = "deprecated"
)

// ValidStatuses contains all valid lifecycle status values.
var ValidStatuses = []string{StatusDraft, StatusPublished, StatusDeprecated}

// IsValidStatus checks if the given status is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// CanTransition reports whether a status change is a legal forward move.
// draft -> published -> deprecated, never backwards, never skipping ahead
// from a terminal state.
func CanTransition(from, to string) bool {
	switch from {
	case StatusDraft:
		return to == StatusPublished
	case StatusPublished:
		return to == StatusDeprecated
	default:
		return false
	}
}
