package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shandysiswandi/researchflow/internal/pkg/pkgerror"
	"github.com/shandysiswandi/researchflow/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/researchflow/internal/research/entity"
)

// step is the pipeline position after a node ran.
type step int

const (
	stepResearch step = iota
	stepWrite
	stepEdit
	stepDone
)

// state is carried between pipeline nodes for one session.
type state struct {
	sessionID string
	topic     string
	depth     entity.Depth

	searchResults []entity.Source
	scraped       []entity.ScrapedPage
	draft         string
	final         string

	next       step
	retryCount int
}

// errSessionClosed stops a run whose session reached a terminal status behind
// its back, for example when the sweeper marked it failed.
var errSessionClosed = errors.New("session already finished")

// failWriteTimeout bounds the final failed-status write, which runs detached
// from the job context so a cancelled job is still recorded.
const failWriteTimeout = 5 * time.Second

// nodeError is a failure inside a pipeline node. It ends the run and is
// recorded on the session rather than returned to the job consumer.
type nodeError struct {
	agent entity.Agent
	err   error
}

func (e *nodeError) Error() string {
	return fmt.Sprintf("%s node failed: %v", e.agent.Title(), e.err)
}

func (e *nodeError) Unwrap() error { return e.err }

// Handle runs the pipeline for job.SessionID. Only pending sessions are run,
// so a redelivered job is a no-op. Node failures mark the session failed and
// return nil; an error is returned only when the session could not be loaded
// or its failure could not be recorded.
func (u *Usecase) Handle(ctx context.Context, job entity.ResearchJob) error {
	session, err := u.store.GetSession(ctx, job.SessionID)
	if err != nil {
		if errors.Is(err, pkgerror.ErrNotFound) {
			slog.WarnContext(ctx, "skip job for unknown session", "session_id", job.SessionID, "event_id", job.EventID)
			return nil
		}
		return err
	}

	if session.Status != entity.StatusPending {
		slog.InfoContext(ctx, "skip job for session already started", "session_id", session.ID, "status", session.Status)
		return nil
	}

	st := &state{
		sessionID: session.ID,
		topic:     session.Topic,
		depth:     session.Depth,
		next:      stepResearch,
	}

	if err := u.runGraph(ctx, st); err != nil {
		if errors.Is(err, errSessionClosed) {
			slog.WarnContext(ctx, "research workflow stopped, session closed elsewhere", "session_id", st.sessionID)
			return nil
		}
		var nerr *nodeError
		if !errors.As(err, &nerr) {
			return err
		}
		slog.ErrorContext(ctx, "research workflow failed", "session_id", st.sessionID, "error", nerr)
		if ferr := u.fail(ctx, st.sessionID, nerr.Error()); ferr != nil {
			return ferr
		}
		return nil
	}

	slog.InfoContext(ctx, "research workflow complete", "session_id", st.sessionID, "rewrites", st.retryCount)
	return nil
}

func (u *Usecase) runGraph(ctx context.Context, st *state) error {
	for st.next != stepDone {
		if err := ctx.Err(); err != nil {
			return &nodeError{agent: u.agentFor(st.next), err: err}
		}

		var err error
		switch st.next {
		case stepResearch:
			err = u.researcher(ctx, st)
		case stepWrite:
			err = u.writer(ctx, st)
		case stepEdit:
			err = u.editor(ctx, st)
		}
		if err != nil {
			return &nodeError{agent: u.agentFor(st.next), err: err}
		}
	}
	return nil
}

func (u *Usecase) agentFor(s step) entity.Agent {
	switch s {
	case stepWrite:
		return entity.AgentWriter
	case stepEdit:
		return entity.AgentEditor
	default:
		return entity.AgentResearcher
	}
}

func (u *Usecase) researcher(ctx context.Context, st *state) error {
	slog.InfoContext(ctx, "researcher node started", "session_id", st.sessionID, "topic", st.topic)

	if err := u.progress(ctx, st.sessionID, entity.StatusResearcherRunning, 10, entity.AgentResearcher); err != nil {
		return err
	}

	results := u.search.Search(ctx, st.topic, st.depth.SearchLimit())
	if len(results) == 0 {
		slog.WarnContext(ctx, "no search results found", "session_id", st.sessionID, "topic", st.topic)
	}

	urls := make([]string, 0, st.depth.ScrapeLimit())
	for _, r := range results {
		if len(urls) == st.depth.ScrapeLimit() {
			break
		}
		if r.URL != "" {
			urls = append(urls, r.URL)
		}
	}

	pages := u.scrapeAll(ctx, urls)
	scraped := make([]entity.ScrapedPage, 0, len(pages))
	for _, p := range pages {
		if p.Success {
			scraped = append(scraped, p)
		}
	}
	slog.InfoContext(ctx, "scraping finished", "session_id", st.sessionID, "ok", len(scraped), "attempted", len(urls))

	st.searchResults = results
	st.scraped = scraped
	st.next = stepWrite

	return u.progress(ctx, st.sessionID, entity.StatusResearcherComplete, 33, entity.AgentResearcher)
}

// scrapeAll fetches urls concurrently and returns pages in input order.
func (u *Usecase) scrapeAll(ctx context.Context, urls []string) []entity.ScrapedPage {
	pages := make([]entity.ScrapedPage, len(urls))
	mgr := pkgroutine.NewManager(u.scrapeWorkers)
	for i, url := range urls {
		mgr.Go(ctx, func(ctx context.Context) error {
			pages[i] = u.scraper.Scrape(ctx, url)
			return nil
		})
	}
	if err := mgr.Wait(); err != nil {
		slog.WarnContext(ctx, "some scrapes did not run", "error", err)
	}
	return pages
}

func (u *Usecase) writer(ctx context.Context, st *state) error {
	slog.InfoContext(ctx, "writer node started", "session_id", st.sessionID, "retry", st.retryCount)

	previousWords := 0
	if st.retryCount == 0 {
		if err := u.progress(ctx, st.sessionID, entity.StatusWriterRunning, 40, entity.AgentWriter); err != nil {
			return err
		}
	} else {
		previousWords = entity.WordCount(st.draft)
	}

	if len(st.scraped) == 0 {
		slog.WarnContext(ctx, "no scraped content available", "session_id", st.sessionID)
	}

	draft, err := u.llm.Complete(ctx, writerPrompt(st.topic, buildContext(st.scraped), previousWords))
	if err != nil {
		return err
	}

	st.draft = draft
	st.next = stepEdit

	return u.progress(ctx, st.sessionID, entity.StatusWriterComplete, 66, entity.AgentWriter)
}

func (u *Usecase) editor(ctx context.Context, st *state) error {
	slog.InfoContext(ctx, "editor node started", "session_id", st.sessionID)

	if err := u.progress(ctx, st.sessionID, entity.StatusEditorRunning, 70, entity.AgentEditor); err != nil {
		return err
	}

	words := entity.WordCount(st.draft)
	if words < u.minWords && st.retryCount < u.maxRewrites {
		slog.WarnContext(ctx, "draft too short, requesting rewrite", "session_id", st.sessionID, "words", words, "retry", st.retryCount+1)
		st.retryCount++
		st.next = stepWrite
		return u.progress(ctx, st.sessionID, entity.StatusWriterRunning, 50, entity.AgentEditor)
	}

	final, err := u.llm.Complete(ctx, editorPrompt(st.draft))
	if err != nil {
		return err
	}

	cur, err := u.store.GetSession(ctx, st.sessionID)
	if err != nil {
		return err
	}
	if cur.Status.Terminal() {
		return errSessionClosed
	}

	report := entity.Report{
		ID:        u.id.Generate(),
		SessionID: st.sessionID,
		Topic:     st.topic,
		Content:   final,
		Sources:   st.searchResults,
		WordCount: entity.WordCount(final),
		CreatedAt: u.clock.Now(),
	}
	if err := u.store.CreateReport(ctx, report); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	slog.InfoContext(ctx, "report saved", "session_id", st.sessionID, "report_id", report.ID, "words", report.WordCount)

	st.final = final
	st.next = stepDone

	return u.advance(ctx, st.sessionID, func(s *entity.Session) {
		s.Status = entity.StatusComplete
		s.Progress = 100
		s.CurrentAgent = entity.AgentEditor
		s.ReportID = report.ID
		s.Err = ""
	})
}

func (u *Usecase) progress(ctx context.Context, sessionID string, status entity.SessionStatus, progress int, agent entity.Agent) error {
	return u.advance(ctx, sessionID, func(s *entity.Session) {
		s.Status = status
		s.Progress = progress
		s.CurrentAgent = agent
	})
}

// advance applies fn to a live session. A terminal session is left untouched
// and errSessionClosed is returned.
func (u *Usecase) advance(ctx context.Context, sessionID string, fn func(*entity.Session)) error {
	closed := false
	err := u.store.UpdateSession(ctx, sessionID, func(s *entity.Session) {
		if s.Status.Terminal() {
			closed = true
			return
		}
		fn(s)
		s.UpdatedAt = u.clock.Now()
	})
	if err != nil {
		return err
	}
	if closed {
		return errSessionClosed
	}
	return nil
}

// fail records msg on a live session. It writes on a context detached from
// ctx's cancellation, so a job cut short by shutdown is still marked failed.
// The store error, if any, is logged and returned so a job consumer can retry.
func (u *Usecase) fail(ctx context.Context, sessionID, msg string) error {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failWriteTimeout)
	defer cancel()

	err := u.store.UpdateSession(wctx, sessionID, func(s *entity.Session) {
		if s.Status.Terminal() {
			return
		}
		s.Status = entity.StatusFailed
		s.Err = msg
		s.UpdatedAt = u.clock.Now()
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to update session status", "session_id", sessionID, "error", err)
	}
	return err
}
