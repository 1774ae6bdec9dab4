package domain

import "time"

// Agent is a verification agent eligible for assignment.
type Agent struct {
	ID        string
	Name      string
	Email     string
	Active    bool
	CreatedAt time.Time
}
