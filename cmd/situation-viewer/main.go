package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
	"github.com/hajimehoshi/ebiten/v2"
	_ "github.com/silbinarywolf/preferdiscretegpu"
	"go.uber.org/zap"

	"github.com/sudorandom/situation-map/pkg/catalog"
	"github.com/sudorandom/situation-map/pkg/dashboard"
	"github.com/sudorandom/situation-map/pkg/layers"
	"github.com/sudorandom/situation-map/pkg/logging"
	"github.com/sudorandom/situation-map/pkg/mapstate"
	"github.com/sudorandom/situation-map/pkg/monitors"
	"github.com/sudorandom/situation-map/pkg/overlay"
	"github.com/sudorandom/situation-map/pkg/stream"
	"github.com/sudorandom/situation-map/pkg/utils"
	"github.com/sudorandom/situation-map/pkg/viewer"
)

type CLI struct {
	Follow string `help:"Mirror a situation-server stream (ws://host:8080/ws) instead of fetching feeds locally." env:"SITUATION_FOLLOW"`

	Width        int    `help:"Internal rendering width." default:"1920"`
	Height       int    `help:"Internal rendering height." default:"1080"`
	WindowWidth  int    `help:"Initial window width." default:"1280"`
	WindowHeight int    `help:"Initial window height." default:"720"`
	TPS          int    `help:"Ticks per second." default:"30"`
	Capture      string `help:"Directory screenshots are written to with the P key." default:"captures"`

	Catalog   string `help:"Catalog YAML replacing the embedded one." env:"SITUATION_CATALOG"`
	Monitors  string `help:"Directory of the custom monitor database." env:"SITUATION_MONITORS_DB"`
	Schedule  string `help:"Refresh schedule." default:"${schedule}"`
	CacheDir  string `help:"Download cache for base map assets." default:"data/cache"`
	Corpus    string `help:"News corpus JSON file or URL." env:"SITUATION_CORPUS"`
	Quakes    string `help:"USGS GeoJSON earthquake feed." default:"${quakes}"`
	Flights   string `help:"OpenSky state vector endpoint. Empty disables flights." default:"${flights}"`
	Countries string `help:"Country polygons GeoJSON file or URL." default:"${countries}"`
	States    string `help:"US state polygons GeoJSON file or URL." default:"${states}"`

	LogLevel string `help:"Log level." default:"info" enum:"debug,info,warn,error"`
	Dev      bool   `help:"Human-readable development logging." default:"true" negatable:""`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("situation-viewer"),
		kong.Description("Desktop situation map. Keys: 1-5 views, +/-/0 zoom, C X B N D S F T layers, Esc close popups, P capture."),
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	controller := mapstate.NewController(logger.Named("mapstate"))
	opts := []viewer.Option{
		viewer.WithLogger(logger.Named("viewer")),
		viewer.WithCaptureDir(cli.Capture),
	}

	if cli.Follow != "" {
		opts = append(opts, viewer.WithFollow())
		go stream.Follow(ctx, cli.Follow, logger.Named("stream"), stream.Mirror(controller))
	} else {
		refresher, closeStore, err := startLocal(ctx, cli, controller, logger)
		if err != nil {
			logger.Error("Startup failed", zap.Error(err))
			restore()
			os.Exit(1)
		}
		defer closeStore()
		opts = append(opts, viewer.WithToggleHook(func(l layers.Layer, on bool) {
			if l == layers.LayerFlights && on {
				refresher.Request()
			}
		}))
	}

	game := viewer.NewGame(controller, cli.Width, cli.Height, opts...)
	ebiten.SetTPS(cli.TPS)
	ebiten.SetWindowSize(cli.WindowWidth, cli.WindowHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowTitle("Situation Map")
	if err := ebiten.RunGame(game); err != nil {
		logger.Error("Viewer exited", zap.Error(err))
	}
}

// startLocal runs the refresh pipeline in-process.
func startLocal(ctx context.Context, cli CLI, controller *mapstate.Controller, logger *zap.Logger) (*dashboard.Refresher, func(), error) {
	utils.CacheDir = cli.CacheDir

	cat, err := catalog.Default()
	if cli.Catalog != "" {
		cat, err = catalog.LoadFile(cli.Catalog)
	}
	if err != nil {
		return nil, nil, err
	}
	store, err := monitors.Open(cli.Monitors)
	if err != nil {
		return nil, nil, err
	}

	src := dashboard.Sources{
		Corpus:    cli.Corpus,
		Quakes:    cli.Quakes,
		Flights:   cli.Flights,
		Countries: cli.Countries,
		States:    cli.States,
	}
	newComposer := func(c *catalog.Catalog) *overlay.Composer {
		return overlay.NewComposer(c, overlay.WithLogger(logger.Named("composer")))
	}
	refresher := dashboard.NewRefresher(controller, newComposer(cat),
		dashboard.FetchersFor(src, store.Hotspots),
		dashboard.WithLogger(logger.Named("refresher")),
		dashboard.WithCanvas(cli.Width, cli.Height))

	sched, err := dashboard.NewSchedule(cli.Schedule, refresher)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	if cli.Catalog != "" {
		go func() {
			err := catalog.Watch(ctx, cli.Catalog, logger.Named("catalog"), func(c *catalog.Catalog) {
				refresher.SetComposer(newComposer(c))
				refresher.Recompose()
			})
			if err != nil {
				logger.Warn("Catalog watch stopped", zap.Error(err))
			}
		}()
	}
	go func() { _ = refresher.LoadBaseMap(ctx, src) }()
	go refresher.Run(ctx)
	refresher.Request()
	sched.Start()

	return refresher, func() {
		sched.Stop()
		_ = store.Close()
	}, nil
}
