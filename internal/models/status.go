package models

// Status marks user-owned records as live or soft-deleted
type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)
