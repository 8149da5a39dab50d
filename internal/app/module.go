package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/shandysiswandi/researchflow/internal/research"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.research.enabled") {
		closer, err := research.New(research.Dependency{
			Config:  a.config,
			Router:  a.router,
			ID:      a.uuid,
			EventID: a.eventID,
		})
		if err != nil {
			slog.Error("failed to init module research", "error", err)
			os.Exit(1)
		}
		if closer != nil {
			if a.closerFn == nil {
				a.closerFn = map[string]func(context.Context) error{}
			}
			a.closerFn["Research"] = closer
		}
	}
}
