package audit

import "time"

// Record is one persisted audit trail entry.
type Record struct {
	ID         int64
	ActorID    int64
	Action     string
	Entity     string
	EntityID   string
	Meta       map[string]any
	OccurredAt time.Time
}

// Filters narrows a timeline listing.
type Filters struct {
	ActorID int64
	Entity  string
	Action  string
	Page    int
	PerPage int
}
