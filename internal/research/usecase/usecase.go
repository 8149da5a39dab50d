package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shandysiswandi/researchflow/internal/pkg/pkgerror"
	"github.com/shandysiswandi/researchflow/internal/pkg/pkglog"
	"github.com/shandysiswandi/researchflow/internal/pkg/pkguid"
	"github.com/shandysiswandi/researchflow/internal/research/entity"
)

const (
	maxTopicLength     = 500
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

type Store interface {
	CreateSession(ctx context.Context, s entity.Session) error
	UpdateSession(ctx context.Context, id string, fn func(s *entity.Session)) error
	GetSession(ctx context.Context, id string) (entity.Session, error)
	ListSessions(ctx context.Context, limit int) ([]entity.Session, error)
	ListStaleSessions(ctx context.Context, before time.Time) ([]entity.Session, error)
	CreateReport(ctx context.Context, r entity.Report) error
	GetReport(ctx context.Context, id string) (entity.Report, error)
}

type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) []entity.Source
}

type Scraper interface {
	Scrape(ctx context.Context, url string) entity.ScrapedPage
}

type LLM interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type JobPublisher interface {
	Publish(ctx context.Context, job entity.ResearchJob) error
}

type Exporter interface {
	Export(w io.Writer, report entity.Report) error
}

type Clock interface {
	Now() time.Time
}

type Dependency struct {
	Store    Store
	Jobs     JobPublisher
	Search   Searcher
	Scraper  Scraper
	LLM      LLM
	Exporter Exporter
	Clock    Clock
	ID       pkguid.StringID
	EventID  pkguid.StringID

	// MinWords is the editor's quality bar; drafts below it are sent back to
	// the writer. Defaults to 500.
	MinWords int
	// MaxRewrites caps how many times the editor may send a draft back.
	// Defaults to 2; negative disables rewrites.
	MaxRewrites int
	// ScrapeWorkers bounds concurrent page fetches. Defaults to 4.
	ScrapeWorkers int
}

type Usecase struct {
	store    Store
	jobs     JobPublisher
	search   Searcher
	scraper  Scraper
	llm      LLM
	exporter Exporter
	clock    Clock
	id       pkguid.StringID
	eventID  pkguid.StringID

	minWords      int
	maxRewrites   int
	scrapeWorkers int
}

func New(dep Dependency) *Usecase {
	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	eventID := dep.EventID
	if eventID == nil {
		eventID = dep.ID
	}

	u := &Usecase{
		store:         dep.Store,
		jobs:          dep.Jobs,
		search:        dep.Search,
		scraper:       dep.Scraper,
		llm:           dep.LLM,
		exporter:      dep.Exporter,
		clock:         clock,
		id:            dep.ID,
		eventID:       eventID,
		minWords:      dep.MinWords,
		maxRewrites:   dep.MaxRewrites,
		scrapeWorkers: dep.ScrapeWorkers,
	}

	if u.minWords <= 0 {
		u.minWords = 500
	}
	switch {
	case u.maxRewrites == 0:
		u.maxRewrites = 2
	case u.maxRewrites < 0:
		u.maxRewrites = 0
	}
	if u.scrapeWorkers <= 0 {
		u.scrapeWorkers = 4
	}

	return u
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Create validates the request, stores a pending session and queues the
// pipeline run.
func (u *Usecase) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	if u.store == nil || u.id == nil || u.jobs == nil {
		return CreateResult{}, pkgerror.NewServer(errors.New("missing dependency"))
	}

	session, err := u.newSession(in)
	if err != nil {
		return CreateResult{}, err
	}

	slog.InfoContext(ctx, "creating research session", "session_id", session.ID, "topic", session.Topic, "depth", session.Depth)

	if err := u.store.CreateSession(ctx, session); err != nil {
		return CreateResult{}, normalizeErr(err)
	}

	job := entity.ResearchJob{
		EventID:    u.eventID.Generate(),
		SessionID:  session.ID,
		RequestCID: pkglog.GetCorrelationID(ctx),
	}
	if err := u.jobs.Publish(ctx, job); err != nil {
		_ = u.fail(ctx, session.ID, fmt.Sprintf("Failed to schedule research workflow: %v", err))
		return CreateResult{}, pkgerror.NewServer(fmt.Errorf("publish job: %w", err))
	}

	return CreateResult{
		SessionID: session.ID,
		Status:    entity.StatusPending,
		Message:   "Research workflow started successfully",
	}, nil
}

// Status returns the progress of a session.
func (u *Usecase) Status(ctx context.Context, sessionID string) (StatusResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return StatusResult{}, pkgerror.NewInvalidInput(errors.New("session_id is required"))
	}

	session, err := u.store.GetSession(ctx, sessionID)
	if err != nil {
		return StatusResult{}, mapStoreErr(err, "Research session not found: "+sessionID)
	}

	return toStatusResult(session), nil
}

// Report returns a completed report.
func (u *Usecase) Report(ctx context.Context, reportID string) (entity.Report, error) {
	if strings.TrimSpace(reportID) == "" {
		return entity.Report{}, pkgerror.NewInvalidInput(errors.New("report_id is required"))
	}

	report, err := u.store.GetReport(ctx, reportID)
	if err != nil {
		return entity.Report{}, mapStoreErr(err, "Report not found: "+reportID)
	}

	return report, nil
}

// ExportReport writes report reportID as a standalone markdown document.
func (u *Usecase) ExportReport(ctx context.Context, w io.Writer, reportID string) error {
	report, err := u.Report(ctx, reportID)
	if err != nil {
		return err
	}

	if err := u.exporter.Export(w, report); err != nil {
		return pkgerror.NewServer(fmt.Errorf("export report %s: %w", reportID, err))
	}

	return nil
}

// Recent lists the newest sessions first. A non-positive limit selects the
// default; limits above the maximum are clamped.
func (u *Usecase) Recent(ctx context.Context, limit int) ([]StatusResult, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	sessions, err := u.store.ListSessions(ctx, limit)
	if err != nil {
		return nil, normalizeErr(err)
	}

	out := make([]StatusResult, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toStatusResult(s))
	}

	return out, nil
}

// Run executes the whole pipeline in the caller's goroutine and returns the
// final report. It backs the command line, where no worker pool is running.
func (u *Usecase) Run(ctx context.Context, in CreateInput) (entity.Report, error) {
	session, err := u.newSession(in)
	if err != nil {
		return entity.Report{}, err
	}

	if err := u.store.CreateSession(ctx, session); err != nil {
		return entity.Report{}, normalizeErr(err)
	}

	if err := u.Handle(ctx, entity.ResearchJob{EventID: u.eventID.Generate(), SessionID: session.ID}); err != nil {
		return entity.Report{}, normalizeErr(err)
	}

	done, err := u.store.GetSession(ctx, session.ID)
	if err != nil {
		return entity.Report{}, normalizeErr(err)
	}
	if done.Status != entity.StatusComplete {
		return entity.Report{}, pkgerror.NewUpstream(errors.New(done.Err), done.Err)
	}

	return u.Report(ctx, done.ReportID)
}

// FailStale marks sessions that have not moved for longer than maxAge as
// failed and returns how many were marked.
func (u *Usecase) FailStale(ctx context.Context, maxAge time.Duration) (int, error) {
	before := u.clock.Now().Add(-maxAge)

	stale, err := u.store.ListStaleSessions(ctx, before)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, s := range stale {
		msg := fmt.Sprintf("Research session timed out after %s in status %s", maxAge, s.Status)
		if err := u.store.UpdateSession(ctx, s.ID, func(cur *entity.Session) {
			if cur.Status.Terminal() {
				return
			}
			cur.Status = entity.StatusFailed
			cur.Err = msg
			cur.UpdatedAt = u.clock.Now()
		}); err != nil {
			return marked, err
		}
		slog.WarnContext(ctx, "marked stale session as failed", "session_id", s.ID, "status", s.Status)
		marked++
	}

	return marked, nil
}

func (u *Usecase) newSession(in CreateInput) (entity.Session, error) {
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return entity.Session{}, pkgerror.NewInvalidInput(errors.New("topic is required"))
	}
	if utf8.RuneCountInString(topic) > maxTopicLength {
		return entity.Session{}, pkgerror.NewInvalidInput(fmt.Errorf("topic must be at most %d characters", maxTopicLength))
	}

	depth := entity.Depth(strings.ToLower(strings.TrimSpace(in.Depth)))
	if depth == "" {
		depth = entity.DepthMedium
	}
	if !depth.Valid() {
		return entity.Session{}, pkgerror.NewInvalidInput(errors.New("depth must be one of quick, medium, deep"))
	}

	now := u.clock.Now()
	return entity.Session{
		ID:        u.id.Generate(),
		Topic:     topic,
		Depth:     depth,
		Status:    entity.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func mapStoreErr(err error, notFoundMsg string) error {
	if errors.Is(err, pkgerror.ErrNotFound) {
		return pkgerror.NewNotFound(notFoundMsg)
	}
	return normalizeErr(err)
}

func normalizeErr(err error) error {
	var perr *pkgerror.Error
	if errors.As(err, &perr) {
		return perr
	}
	return pkgerror.NewServer(err)
}
