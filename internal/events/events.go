// Package events declares the payloads published on the eventbus while a
// request is served. Each Start event is published on the context later
// passed with its Finish event.
package events

import (
	"net/http"
	"time"
)

// HTTPStart is published when the handler receives a request.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is published once the response has been written.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}

// GraphQLStart is published before a validated operation runs.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is published after an operation ran or was rejected.
// Rejected operations never started and have no matching GraphQLStart.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Rejected      bool
	Errors        []error
	Duration      time.Duration
}
