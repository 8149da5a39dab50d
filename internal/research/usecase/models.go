package usecase

import (
	"time"

	"github.com/shandysiswandi/researchflow/internal/research/entity"
)

type CreateInput struct {
	Topic string
	Depth string
}

type CreateResult struct {
	SessionID string
	Status    entity.SessionStatus
	Message   string
}

type StatusResult struct {
	SessionID    string
	Topic        string
	Status       entity.SessionStatus
	Progress     int
	CurrentAgent entity.Agent
	ReportID     string
	ErrorMessage string
	CreatedAt    time.Time
}

func toStatusResult(s entity.Session) StatusResult {
	return StatusResult{
		SessionID:    s.ID,
		Topic:        s.Topic,
		Status:       s.Status,
		Progress:     s.Progress,
		CurrentAgent: s.CurrentAgent,
		ReportID:     s.ReportID,
		ErrorMessage: s.Err,
		CreatedAt:    s.CreatedAt,
	}
}
