package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/sudorandom/situation-map/pkg/catalog"
	"github.com/sudorandom/situation-map/pkg/geo"
	"github.com/sudorandom/situation-map/pkg/monitors"
	"github.com/sudorandom/situation-map/pkg/sources"
)

type CLI struct {
	Corpus   string        `arg:"" help:"News corpus JSON file or URL."`
	Catalog  string        `help:"Catalog YAML replacing the embedded one."`
	View     string        `help:"View whose entities are scored (global, us, mideast, ukraine, taiwan)." default:"global"`
	Monitors string        `help:"Custom monitor database to include."`
	All      bool          `help:"List entities without matches too."`
	Watch    time.Duration `help:"Re-fetch the corpus and redraw at this interval."`
	NoColor  bool          `help:"Disable colored tiers."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("score-corpus"),
		kong.Description("Prints the activity score table of a news corpus."))
	if cli.NoColor {
		color.NoColor = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	kctx.FatalIfErrorf(run(ctx, cli, os.Stdout))
}

func run(ctx context.Context, cli CLI, w io.Writer) error {
	view, err := geo.ParseView(cli.View)
	if err != nil {
		return err
	}
	cat, err := catalog.Default()
	if cli.Catalog != "" {
		cat, err = catalog.LoadFile(cli.Catalog)
	}
	if err != nil {
		return err
	}
	var mons []catalog.CustomMonitor
	if cli.Monitors != "" {
		store, err := monitors.Open(cli.Monitors)
		if err != nil {
			return err
		}
		mons, err = store.List()
		_ = store.Close()
		if err != nil {
			return err
		}
	}

	report := func() error {
		corpus, err := sources.FetchCorpus(ctx, cli.Corpus)
		if err != nil {
			return err
		}
		writeTable(w, view, len(corpus), scoreTable(cat, view, corpus, mons, cli.All))
		return nil
	}

	if cli.Watch <= 0 {
		return report()
	}
	ticker := time.NewTicker(cli.Watch)
	defer ticker.Stop()
	for {
		fmt.Fprint(w, "\033[H\033[2J") // Clear screen
		if err := report(); err != nil {
			fmt.Fprintf(w, "refresh failed: %v\n", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
