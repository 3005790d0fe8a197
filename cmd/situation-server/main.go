package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/sudorandom/situation-map/pkg/catalog"
	"github.com/sudorandom/situation-map/pkg/dashboard"
	"github.com/sudorandom/situation-map/pkg/logging"
	"github.com/sudorandom/situation-map/pkg/mapstate"
	"github.com/sudorandom/situation-map/pkg/metrics"
	"github.com/sudorandom/situation-map/pkg/monitors"
	"github.com/sudorandom/situation-map/pkg/overlay"
	"github.com/sudorandom/situation-map/pkg/server"
	"github.com/sudorandom/situation-map/pkg/stream"
	"github.com/sudorandom/situation-map/pkg/utils"
)

type CLI struct {
	Listen   string `help:"HTTP listen address." default:":8080" env:"SITUATION_LISTEN"`
	Catalog  string `help:"Catalog YAML replacing the embedded one; reloaded on change." env:"SITUATION_CATALOG"`
	Monitors string `help:"Directory of the custom monitor database. Empty keeps monitors in memory." env:"SITUATION_MONITORS_DB"`
	Schedule string `help:"Refresh schedule (cron expression or @every duration)." default:"${schedule}" env:"SITUATION_SCHEDULE"`
	Width    int    `help:"Canvas width overlay sets are composed for." default:"1920"`
	Height   int    `help:"Canvas height overlay sets are composed for." default:"1080"`
	CacheDir string `help:"Download cache for base map assets." default:"data/cache" env:"SITUATION_CACHE_DIR"`

	ImportMonitors string `help:"YAML file of monitors written to the database at startup." type:"existingfile"`

	Corpus    string `help:"News corpus JSON file or URL." env:"SITUATION_CORPUS"`
	Quakes    string `help:"USGS GeoJSON earthquake feed." default:"${quakes}"`
	Flights   string `help:"OpenSky state vector endpoint. Empty disables flights." default:"${flights}"`
	Countries string `help:"Country polygons GeoJSON file or URL." default:"${countries}"`
	States    string `help:"US state polygons GeoJSON file or URL." default:"${states}"`

	LogLevel string `help:"Log level." default:"info" enum:"debug,info,warn,error" env:"SITUATION_LOG_LEVEL"`
	Dev      bool   `help:"Human-readable development logging."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("situation-server"),
		kong.Description("Serves the situation map overlay over HTTP and websocket."),
		kong.Vars{
			"schedule":  dashboard.DefaultSchedule,
			"quakes":    dashboard.DefaultSources.Quakes,
			"flights":   dashboard.DefaultSources.Flights,
			"countries": dashboard.DefaultSources.Countries,
			"states":    dashboard.DefaultSources.States,
		})

	logger, restore, err := logging.Install(cli.LogLevel, cli.Dev)
	kctx.FatalIfErrorf(err)
	defer restore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cli, logger); err != nil {
		logger.Error("Server failed", zap.Error(err))
		restore()
		os.Exit(1)
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

func run(ctx context.Context, cli CLI, logger *zap.Logger) error {
	utils.CacheDir = cli.CacheDir

	cat, err := loadCatalog(cli.Catalog)
	if err != nil {
		return err
	}
	store, err := monitors.Open(cli.Monitors)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if cli.ImportMonitors != "" {
		n, err := store.ImportFile(cli.ImportMonitors)
		if err != nil {
			return err
		}
		logger.Info("Imported monitors", zap.Int("count", n), zap.String("path", cli.ImportMonitors))
	}

	m := metrics.New()
	controller := mapstate.NewController(logger.Named("mapstate"))
	newComposer := func(c *catalog.Catalog) *overlay.Composer {
		return overlay.NewComposer(c, overlay.WithLogger(logger.Named("composer")))
	}
	src := dashboard.Sources{
		Corpus:    cli.Corpus,
		Quakes:    cli.Quakes,
		Flights:   cli.Flights,
		Countries: cli.Countries,
		States:    cli.States,
	}
	refresher := dashboard.NewRefresher(controller, newComposer(cat),
		dashboard.FetchersFor(src, store.Hotspots),
		dashboard.WithMetrics(m),
		dashboard.WithLogger(logger.Named("refresher")),
		dashboard.WithCanvas(cli.Width, cli.Height))

	hub := stream.NewHub(logger.Named("stream"))
	hub.OnClients = func(n int) { m.StreamClients.Set(float64(n)) }
	controller.Subscribe(hub.Publish)

	sched, err := dashboard.NewSchedule(cli.Schedule, refresher)
	if err != nil {
		return err
	}

	if cli.Catalog != "" {
		go func() {
			err := catalog.Watch(ctx, cli.Catalog, logger.Named("catalog"), func(c *catalog.Catalog) {
				refresher.SetComposer(newComposer(c))
				refresher.Recompose()
			})
			if err != nil {
				logger.Error("Catalog watch stopped", zap.Error(err))
			}
		}()
	}
	go func() { _ = refresher.LoadBaseMap(ctx, src) }()
	go refresher.Run(ctx)
	refresher.Request()
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr: cli.Listen,
		Handler: server.New(server.Deps{
			Controller: controller,
			Refresher:  refresher,
			Monitors:   store,
			Stream:     hub,
			Metrics:    m.Handler(),
			Logger:     logger.Named("http"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", zap.String("addr", cli.Listen), zap.String("schedule", cli.Schedule))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
