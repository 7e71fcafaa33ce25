package events

import "time"

// RepositoryStart is emitted before a repository call. CallID pairs it with
// the matching RepositoryFinish; calls of one request may overlap.
type RepositoryStart struct {
	CallID string
	Entity string
	Op     string
}

// RepositoryFinish is emitted after a repository call returns.
type RepositoryFinish struct {
	CallID   string
	Entity   string
	Op       string
	Rows     int
	Err      error
	Duration time.Duration
}
