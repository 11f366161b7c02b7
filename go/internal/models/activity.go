package models

import "time"

// ActivityEntry is one line of the shared activity feed.
type ActivityEntry struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
