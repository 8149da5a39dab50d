package app

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/researchflow/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/researchflow/internal/pkg/pkglog"
	"github.com/shandysiswandi/researchflow/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/researchflow/internal/pkg/pkguid"
)

type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	configPath string
	config     pkgconfig.Config

	// libraries
	uuid    pkguid.StringID
	eventID pkguid.StringID

	// server
	router     *pkgrouter.Router
	httpServer *http.Server

	//
	closerFn map[string]func(context.Context) error
}

func New(configPath string) *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:        ctx,
		cancel:     cancel,
		configPath: configPath,
	}

	app.initConfig()
	pkglog.InitLogging(app.config.GetString("log.level"))

	app.initLibraries()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
