package entity

import "time"

// Session tracks one run of the research pipeline.
type Session struct {
	ID           string
	Topic        string
	Depth        Depth
	Status       SessionStatus
	Progress     int
	CurrentAgent Agent
	ReportID     string
	Err          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
