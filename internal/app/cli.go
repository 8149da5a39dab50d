package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shandysiswandi/researchflow/internal/pkg/pkglog"
	"github.com/shandysiswandi/researchflow/internal/pkg/pkguid"
	"github.com/shandysiswandi/researchflow/internal/research"
	"github.com/shandysiswandi/researchflow/internal/research/usecase"
)

// RunResearch runs one research in-process and writes the report as
// markdown to w. Logs go to stderr so w can be redirected to a file.
func RunResearch(ctx context.Context, configPath, topic, depth string, w io.Writer) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	defer func() { _ = cfg.Close() }()

	slog.SetDefault(pkglog.New(os.Stderr, cfg.GetString("log.level")))

	uc, closeStore, err := research.NewRunner(research.Dependency{
		Config: cfg,
		ID:     pkguid.NewUUID(),
	})
	if err != nil {
		return err
	}
	defer func() { _ = closeStore(context.Background()) }()

	report, err := uc.Run(ctx, usecase.CreateInput{Topic: topic, Depth: depth})
	if err != nil {
		return err
	}

	return uc.ExportReport(ctx, w, report.ID)
}
