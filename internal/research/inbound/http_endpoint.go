package inbound

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shandysiswandi/researchflow/internal/pkg/pkgerror"
	"github.com/shandysiswandi/researchflow/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/researchflow/internal/research/usecase"
)

const maxRequestBytes = 1 << 20

type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) CreateResearch(ctx context.Context, r *http.Request) (any, error) {
	var req CreateResearchRequest
	if err := pkgrouter.DecodeJSON(r, &req, maxRequestBytes); err != nil {
		return nil, err
	}

	result, err := h.uc.Create(ctx, usecase.CreateInput{Topic: req.Topic, Depth: req.Depth})
	if err != nil {
		return nil, err
	}

	return CreateResearchResponse{
		SessionID: result.SessionID,
		Status:    result.Status,
		message:   result.Message,
	}, nil
}

func (h *HTTPEndpoint) Status(ctx context.Context, r *http.Request) (any, error) {
	result, err := h.uc.Status(ctx, pkgrouter.GetParam(ctx, "id"))
	if err != nil {
		return nil, err
	}

	return toStatusResponse(result), nil
}

func (h *HTTPEndpoint) Report(ctx context.Context, r *http.Request) (any, error) {
	report, err := h.uc.Report(ctx, pkgrouter.GetParam(ctx, "id"))
	if err != nil {
		return nil, err
	}

	return toReportResponse(report), nil
}

func (h *HTTPEndpoint) ReportMarkdown(ctx context.Context, r *http.Request) (any, error) {
	id := pkgrouter.GetParam(ctx, "id")

	var buf bytes.Buffer
	if err := h.uc.ExportReport(ctx, &buf, id); err != nil {
		return nil, err
	}

	return pkgrouter.Raw{
		ContentType: "text/markdown; charset=utf-8",
		Filename:    "report-" + id + ".md",
		Body:        buf.Bytes(),
	}, nil
}

func (h *HTTPEndpoint) Sessions(ctx context.Context, r *http.Request) (any, error) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		return nil, err
	}

	results, err := h.uc.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}

	sessions := make([]StatusResponse, 0, len(results))
	for _, s := range results {
		sessions = append(sessions, toStatusResponse(s))
	}

	return SessionsResponse{Sessions: sessions}, nil
}

// parseLimit returns 0 for an absent limit; the usecase applies the default.
func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, pkgerror.NewInvalidInput(errors.New("invalid limit"))
	}

	return value, nil
}
