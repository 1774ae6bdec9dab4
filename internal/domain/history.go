package domain

import "time"

// ChangeType enumerates kinds of recorded request changes.
type ChangeType string

const (
	ChangeTypeStatus   ChangeType = "status"
	ChangeTypeAgent    ChangeType = "agent"
	ChangeTypeDeadline ChangeType = "deadline"
)

// ActorType identifies who made a change.
type ActorType string

const (
	ActorTypeCustomer ActorType = "customer"
	ActorTypeAgent    ActorType = "agent"
	ActorTypeSystem   ActorType = "system"
)

// RequestHistory is an audit record of a single request change.
type RequestHistory struct {
	ID            string
	RequestID     string
	ChangedByType ActorType
	ChangedByID   *string
	ChangeType    ChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
