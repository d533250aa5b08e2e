package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/ayn2op/soilview"
	"github.com/ayn2op/soilview/help"
	"github.com/ayn2op/soilview/hydrate"
	"github.com/ayn2op/soilview/metrics"
	"github.com/ayn2op/soilview/realtime"
	"github.com/ayn2op/soilview/realtime/memdb"
	"github.com/ayn2op/soilview/realtime/sqlitedb"
)

// seedConcurrency bounds the writes in flight while seeding.
const seedConcurrency = 8

// NewRootCommand returns the soilview command.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	conf := NewConfig()
	var configPath string

	rc := &cobra.Command{
		Use:   "soilview",
		Short: "Browse a live, paginated list in the terminal.",
		Long: `Opens a list of generated notes, paginated and hydrated while scrolled,
and keeps inserting new notes while it runs.

Options are read from flags, then SOILVIEW_* environment variables, then the
TOML file given with --config. "soilview config" prints the defaults.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setAllConfig(viper.New(), cmd.LocalNonPersistentFlags(), configPath)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), conf)
		},
	}
	rc.SetOut(stdout)
	rc.SetErr(stderr)

	rc.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file to read from.")
	rc.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	conf.flags(rc.Flags())

	rc.AddCommand(newConfigCommand(stdout))
	return rc
}

// store is what the demo writes through; both backends provide it.
type store interface {
	realtime.Database
	Set(ctx context.Context, path, key string, value any) error
}

func openStore(dsn string) (store, func() error, error) {
	if dsn == "memory" {
		db := memdb.New()
		return db, func() error { return nil }, nil
	}
	db, err := sqlitedb.Open(dsn)
	if err != nil {
		return nil, nil, err
	}
	return db, db.Close, nil
}

func run(ctx context.Context, conf *Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	opts, liveInterval, err := conf.ListOptions()
	if err != nil {
		return err
	}
	opts.Selector = realtime.PublicList{}

	db, closeDB, err := openStore(conf.DB)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := seed(ctx, db, conf.DataType, conf.Seed, time.Now()); err != nil {
		return errors.Wrap(err, "seeding")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)

	app := soilview.NewApplication()
	list := soilview.NewObserverList(db, app).
		SetOptions(opts).
		SetCache(hydrate.NewCache()).
		SetMetrics(m).
		SetTrackEnd(conf.TrackEnd).
		SetLoading(soilview.NewTextItem("Loading…")).
		SetEmpty(soilview.NewTextItem("No notes yet.").SetColor(soilview.Styles.TertiaryTextColor))
	list.SetBorders(soilview.BordersAll).SetTitle(" " + conf.DataType + " ")

	bar := help.New().SetKeyMap(list)
	bar.SetStatusFunc(func() string {
		return fmt.Sprintf("%s %d", list.State(), len(list.Entries()))
	})
	app.SetRoot(newView(list, bar))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if liveInterval > 0 {
		g.Go(func() error {
			return pushLive(ctx, db, conf.DataType, liveInterval)
		})
	}

	var srv *http.Server
	if conf.MetricsBind != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		srv = &http.Server{Addr: conf.MetricsBind, Handler: mux}
		g.Go(func() error {
			glog.Infof("[metrics]serving on %s\n", conf.MetricsBind)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return errors.Wrap(err, "metrics server")
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		// The list belongs to the event loop, so it is closed there. This
		// never runs if the loop already returned.
		app.Post(func() {
			list.Close()
			app.Stop()
		})
		if srv != nil {
			return srv.Shutdown(context.Background())
		}
		return nil
	})

	g.Go(func() error {
		defer cancel()
		return app.Run()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// seed writes n notes, one every 7s of the time before now, so that the list
// has a history spread over several minutes.
func seed(ctx context.Context, db store, dataType string, n int, now time.Time) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(seedConcurrency)
	for i := 0; i < n; i++ {
		at := now.Add(-time.Duration(n-i) * 7 * time.Second)
		text := fmt.Sprintf("note %d", i+1)
		g.Go(func() error {
			return writeNote(ctx, db, dataType, at, text)
		})
	}
	return g.Wait()
}

// writeNote stores the note value before its list entry so that the entry
// hydrates on first sight.
func writeNote(ctx context.Context, db store, dataType string, at time.Time, text string) error {
	key := realtime.NewPushKey()
	if err := db.Set(ctx, realtime.DataPath(dataType), key, text); err != nil {
		return err
	}
	return db.Set(ctx, realtime.PublicDataListPath(dataType), key, at.UnixMilli())
}

func pushLive(ctx context.Context, db store, dataType string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for n := 1; ; n++ {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if err := writeNote(ctx, db, dataType, now, fmt.Sprintf("live note %d", n)); err != nil {
				return err
			}
			glog.V(1).Infof("[live]pushed note %d\n", n)
		}
	}
}
