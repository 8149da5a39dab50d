package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shandysiswandi/researchflow/internal/pkg/pkgerror"
	"github.com/shandysiswandi/researchflow/internal/research/entity"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionRecord
	reports  map[string]entity.Report
}

type sessionRecord struct {
	mu      sync.RWMutex
	session entity.Session
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*sessionRecord),
		reports:  make(map[string]entity.Report),
	}
}

func (s *InMemoryStore) CreateSession(ctx context.Context, session entity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return pkgerror.NewBusiness("session already exists", pkgerror.CodeConflict)
	}

	s.sessions[session.ID] = &sessionRecord{session: session}

	return nil
}

func (s *InMemoryStore) UpdateSession(ctx context.Context, id string, fn func(s *entity.Session)) error {
	rec, err := s.get(id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	fn(&rec.session)
	// the id is the map key and must not drift
	rec.session.ID = id

	return nil
}

func (s *InMemoryStore) GetSession(ctx context.Context, id string) (entity.Session, error) {
	rec, err := s.get(id)
	if err != nil {
		return entity.Session{}, err
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	return rec.session, nil
}

// ListSessions returns up to limit sessions, newest first.
func (s *InMemoryStore) ListSessions(ctx context.Context, limit int) ([]entity.Session, error) {
	out := s.snapshot(func(entity.Session) bool { return true })

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// ListStaleSessions returns non-terminal sessions last updated before before.
func (s *InMemoryStore) ListStaleSessions(ctx context.Context, before time.Time) ([]entity.Session, error) {
	out := s.snapshot(func(session entity.Session) bool {
		return !session.Status.Terminal() && session.UpdatedAt.Before(before)
	})

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })

	return out, nil
}

func (s *InMemoryStore) CreateReport(ctx context.Context, r entity.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[r.ID]; exists {
		return pkgerror.NewBusiness("report already exists", pkgerror.CodeConflict)
	}

	r.Sources = append([]entity.Source(nil), r.Sources...)
	s.reports[r.ID] = r

	return nil
}

func (s *InMemoryStore) GetReport(ctx context.Context, id string) (entity.Report, error) {
	s.mu.RLock()
	r, ok := s.reports[id]
	s.mu.RUnlock()
	if !ok {
		return entity.Report{}, pkgerror.ErrNotFound
	}

	r.Sources = append([]entity.Source(nil), r.Sources...)
	return r, nil
}

func (s *InMemoryStore) get(id string) (*sessionRecord, error) {
	s.mu.RLock()
	rec, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, pkgerror.ErrNotFound
	}

	return rec, nil
}

func (s *InMemoryStore) snapshot(keep func(entity.Session) bool) []entity.Session {
	s.mu.RLock()
	recs := make([]*sessionRecord, 0, len(s.sessions))
	for _, rec := range s.sessions {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	out := make([]entity.Session, 0, len(recs))
	for _, rec := range recs {
		rec.mu.RLock()
		session := rec.session
		rec.mu.RUnlock()
		if keep(session) {
			out = append(out, session)
		}
	}

	return out
}
