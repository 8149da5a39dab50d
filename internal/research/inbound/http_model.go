package inbound

import (
	"net/http"
	"time"

	"github.com/shandysiswandi/researchflow/internal/research/entity"
	"github.com/shandysiswandi/researchflow/internal/research/usecase"
)

type CreateResearchRequest struct {
	Topic string `json:"topic"`
	Depth string `json:"depth"`
}

type CreateResearchResponse struct {
	SessionID string               `json:"session_id"`
	Status    entity.SessionStatus `json:"status"`
	message   string
}

func (CreateResearchResponse) StatusCode() int {
	return http.StatusAccepted
}

func (r CreateResearchResponse) Message() string {
	if r.message == "" {
		return "research accepted"
	}
	return r.message
}

type StatusResponse struct {
	SessionID    string               `json:"session_id"`
	Topic        string               `json:"topic"`
	Status       entity.SessionStatus `json:"status"`
	Progress     int                  `json:"progress"`
	CurrentAgent entity.Agent         `json:"current_agent,omitempty"`
	ReportID     string               `json:"report_id,omitempty"`
	ErrorMessage string               `json:"error_message,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

type Source struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

type ReportResponse struct {
	ReportID  string    `json:"report_id"`
	SessionID string    `json:"session_id"`
	Topic     string    `json:"topic"`
	Content   string    `json:"content"`
	Sources   []Source  `json:"sources"`
	WordCount int       `json:"word_count"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionsResponse struct {
	Sessions []StatusResponse `json:"sessions"`
}

func (r SessionsResponse) Meta() map[string]any {
	return map[string]any{
		"count": len(r.Sessions),
	}
}

func toStatusResponse(s usecase.StatusResult) StatusResponse {
	return StatusResponse{
		SessionID:    s.SessionID,
		Topic:        s.Topic,
		Status:       s.Status,
		Progress:     s.Progress,
		CurrentAgent: s.CurrentAgent,
		ReportID:     s.ReportID,
		ErrorMessage: s.ErrorMessage,
		CreatedAt:    s.CreatedAt,
	}
}

func toReportResponse(r entity.Report) ReportResponse {
	sources := make([]Source, 0, len(r.Sources))
	for _, s := range r.Sources {
		sources = append(sources, Source{URL: s.URL, Title: s.Title, Snippet: s.Snippet, Source: s.Provider})
	}

	return ReportResponse{
		ReportID:  r.ID,
		SessionID: r.SessionID,
		Topic:     r.Topic,
		Content:   r.Content,
		Sources:   sources,
		WordCount: r.WordCount,
		CreatedAt: r.CreatedAt,
	}
}
