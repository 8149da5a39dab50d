package research

import (
	"context"
	"fmt"

	"github.com/shandysiswandi/researchflow/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/researchflow/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/researchflow/internal/pkg/pkguid"
	"github.com/shandysiswandi/researchflow/internal/research/event"
	"github.com/shandysiswandi/researchflow/internal/research/export"
	"github.com/shandysiswandi/researchflow/internal/research/inbound"
	"github.com/shandysiswandi/researchflow/internal/research/outbound"
	"github.com/shandysiswandi/researchflow/internal/research/store"
	"github.com/shandysiswandi/researchflow/internal/research/sweeper"
	"github.com/shandysiswandi/researchflow/internal/research/usecase"
)

type Dependency struct {
	Config  pkgconfig.Config
	Router  *pkgrouter.Router
	ID      pkguid.StringID
	EventID pkguid.StringID
}

// New wires the research module behind the router: API, views, job queue
// and the stale session sweeper. The returned closer drains the queue and
// releases storage.
func New(dep Dependency) (func(context.Context) error, error) {
	bus := event.NewBus(int(dep.Config.GetInt("queue.buffer")))

	uc, closeStore, err := newUsecase(dep, bus)
	if err != nil {
		return nil, err
	}

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	if err := inbound.RegisterHTTPView(dep.Router, uc); err != nil {
		_ = closeStore(context.Background())
		return nil, err
	}

	consumer := event.NewJobConsumer(bus, uc, event.ConsumerConfig{
		Workers:      int(dep.Config.GetInt("queue.workers")),
		MaxRetries:   int(dep.Config.GetInt("queue.max_retries")),
		BaseBackoff:  dep.Config.GetDuration("queue.base_backoff"),
		DedupeWindow: dep.Config.GetDuration("queue.dedupe_window"),
	})
	consumer.Start()

	closers := []func(context.Context) error{consumer.Stop}

	if dep.Config.GetBool("sweeper.enabled") {
		sw, err := sweeper.New(uc, sweeper.Config{
			Schedule: dep.Config.GetString("sweeper.schedule"),
			MaxAge:   dep.Config.GetDuration("sweeper.max_age"),
		})
		if err != nil {
			_ = consumer.Stop(context.Background())
			_ = closeStore(context.Background())
			return nil, err
		}
		sw.Start()
		closers = append([]func(context.Context) error{sw.Stop}, closers...)
	}

	closers = append(closers, closeStore)

	return func(ctx context.Context) error {
		var first error
		for _, c := range closers {
			if err := c(ctx); err != nil && first == nil {
				first = err
			}
		}
		return first
	}, nil
}

// NewRunner builds the usecase without queue or HTTP surface for running a
// single research in the caller's goroutine.
func NewRunner(dep Dependency) (*usecase.Usecase, func(context.Context) error, error) {
	return newUsecase(dep, nil)
}

func newUsecase(dep Dependency, jobs usecase.JobPublisher) (*usecase.Usecase, func(context.Context) error, error) {
	cfg := dep.Config

	if dep.ID == nil {
		dep.ID = pkguid.NewUUID()
	}

	st, closeStore, err := newStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	uc := usecase.New(usecase.Dependency{
		Store: st,
		Jobs:  jobs,
		Search: outbound.NewWebSearch(outbound.SearchConfig{
			TavilyAPIKey:  cfg.GetString("search.tavily.api_key"),
			TavilyURL:     cfg.GetString("search.tavily.url"),
			DuckDuckGoURL: cfg.GetString("search.duckduckgo.url"),
			Timeout:       cfg.GetDuration("search.timeout"),
		}),
		Scraper: outbound.NewPageScraper(outbound.ScraperConfig{
			Timeout:  cfg.GetDuration("scraper.timeout"),
			MaxChars: int(cfg.GetInt("scraper.max_chars")),
		}),
		LLM: outbound.NewChatLLM(outbound.LLMConfig{
			BaseURL:     cfg.GetString("llm.base_url"),
			APIKey:      cfg.GetString("llm.api_key"),
			Model:       cfg.GetString("llm.model"),
			Temperature: cfg.GetFloat("llm.temperature"),
			MaxTokens:   int(cfg.GetInt("llm.max_tokens")),
			Timeout:     cfg.GetDuration("llm.timeout"),
		}),
		Exporter:      export.NewMarkdownExporter(),
		ID:            dep.ID,
		EventID:       dep.EventID,
		MinWords:      int(cfg.GetInt("workflow.min_words")),
		MaxRewrites:   int(cfg.GetInt("workflow.max_rewrites")),
		ScrapeWorkers: int(cfg.GetInt("scraper.workers")),
	})

	return uc, closeStore, nil
}

func newStore(cfg pkgconfig.Config) (usecase.Store, func(context.Context) error, error) {
	switch driver := cfg.GetString("storage.driver"); driver {
	case "", "memory":
		return store.NewInMemoryStore(), func(context.Context) error { return nil }, nil
	case "sqlite":
		db, err := store.OpenSQLite(cfg.GetString("storage.sqlite.path"))
		if err != nil {
			return nil, nil, err
		}
		return db, func(context.Context) error { return db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
