package journal

import "time"

// Entry represents a student journal entry.
type Entry struct {
	ID        int64
	AuthorID  int64
	GroupID   int64
	Title     string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
