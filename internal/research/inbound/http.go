package inbound

import (
	"context"
	"io"

	"github.com/shandysiswandi/researchflow/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/researchflow/internal/research/entity"
	"github.com/shandysiswandi/researchflow/internal/research/usecase"
)

type uc interface {
	Create(ctx context.Context, in usecase.CreateInput) (usecase.CreateResult, error)
	Status(ctx context.Context, sessionID string) (usecase.StatusResult, error)
	Report(ctx context.Context, reportID string) (entity.Report, error)
	ExportReport(ctx context.Context, w io.Writer, reportID string) error
	Recent(ctx context.Context, limit int) ([]usecase.StatusResult, error)
}

func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/research", end.CreateResearch)
	r.GET("/api/status/:id", end.Status)
	r.GET("/api/report/:id", end.Report)
	r.GET("/api/report/:id/markdown", end.ReportMarkdown)
	r.GET("/api/sessions", end.Sessions) // ?limit=
}

// RegisterHTTPView mounts the route table of server-rendered views and the
// home form handler.
func RegisterHTTPView(r *pkgrouter.Router, uc uc) error {
	view, err := NewHTTPView(uc)
	if err != nil {
		return err
	}

	table, err := NewRouteTable(view)
	if err != nil {
		return err
	}
	table.Register(r, "/api/")

	r.Handle("POST", "/", view.SubmitHandler())

	return nil
}
