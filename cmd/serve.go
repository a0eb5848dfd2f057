package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stub-server/core/config"
	"stub-server/core/database"
	"stub-server/core/listener"
	"stub-server/core/loader"
	"stub-server/core/logger"
	"stub-server/core/logtail"
	"stub-server/core/metrics"
	"stub-server/core/router"
	"stub-server/core/storage"
	"stub-server/feature/control"
	"stub-server/feature/endpoint"
	"stub-server/feature/upload"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// @title Stub Server API
// @version 1.0
// @description Embedded HTTP stub that logs every request and answers with a static JSON payload.
// @host localhost:8080
// @BasePath /api
// @securityDefinitions.basic BasicAuth

var (
	noConsole    bool
	noWatch      bool
	drainTimeout time.Duration
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stub server",
	Long: `Starts the HTTP listener and an interactive console on stdin (type help).
The settings file is watched: changes to scheme, host, port or path rebind the listener,
credentials and the response file apply to the next request. SIGHUP restarts the listener,
SIGINT and SIGTERM stop it and wait for in-flight requests.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), cmd)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&noConsole, "no-console", false, "do not read commands from stdin")
	serveCmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not watch the settings file")
	serveCmd.Flags().DurationVar(&drainTimeout, "drain-timeout", 10*time.Second, "how long to wait for in-flight requests on exit")
	RootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	// 1. Load Configuration
	mgr, cfg, err := loadSettings()
	if err != nil {
		return err
	}

	// 2. Initialize Logger
	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logg.Sync()
	zap.ReplaceGlobals(logg)

	// 3. Upload pipeline with its optional sinks
	m := metrics.New()
	uploads := upload.NewService(upload.NewPersister(), logg, m, uploadSinks(ctx, cfg, logg)...)

	// 4. Features, router and listener
	features := loader.NewManager()
	features.Register(endpoint.NewFeature(uploads, logg))

	builder := router.NewBuilder(router.Config{
		Source:   mgr,
		Features: features,
		Logger:   logg,
		Metrics:  m,
	})
	lc := listener.New(listener.Config{
		Source:  mgr,
		Handler: builder.Handler,
		Logger:  logg,
		Metrics: m,
	})
	ctl := control.NewController(lc, mgr, logg)

	out := cmd.OutOrStdout()
	msg, err := ctl.Start()
	if err != nil {
		fmt.Fprintf(out, "%s %v\n", msg, err)
	} else {
		fmt.Fprintln(out, ctl.Status())
	}

	// 5. Settings file watch
	var settingsWatcher *logtail.Watcher
	if !noWatch {
		settingsWatcher, err = watchSettings(mgr, lc, ctl, logg)
		if err != nil {
			logg.Warn("Settings file is not watched", zap.Error(err))
		}
	}

	// 6. Console and signals
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	quit := make(chan struct{})
	consoleDone := make(chan struct{})
	if noConsole {
		close(consoleDone)
	} else {
		console := control.NewConsole(ctl, out)
		go func() {
			defer close(consoleDone)
			if console.Run(ctx, cmd.InOrStdin()) {
				close(quit)
			}
		}()
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigs)

loop:
	for {
		select {
		case sig := <-sigs:
			if sig == syscall.SIGHUP {
				logg.Info("SIGHUP received, restarting listener")
				if msg, err := ctl.Restart(); err != nil {
					fmt.Fprintf(out, "%s %v\n", msg, err)
				}
				continue
			}
			logg.Info("Shutting down", zap.Stringer("signal", sig))
			break loop
		case <-quit:
			break loop
		case <-ctx.Done():
			break loop
		}
	}

	// 7. Graceful Shutdown
	// Nothing may start the listener again once draining begins.
	if settingsWatcher != nil {
		_ = settingsWatcher.Stop()
	}
	cancel()
	<-consoleDone
	if msg, err := ctl.Stop(); err != nil {
		fmt.Fprintf(out, "%s %v\n", msg, err)
	}
	drainCtx, drainCancel := context.WithTimeout(context.Background(), drainTimeout)
	defer drainCancel()
	if err := lc.Wait(drainCtx); err != nil {
		logg.Warn("In-flight requests did not finish in time", zap.Error(err))
	}
	return nil
}

// uploadSinks connects the optional journal and bucket mirror. Failures only disable the sink.
func uploadSinks(ctx context.Context, cfg *config.Config, logg *zap.Logger) []upload.Sink {
	var sinks []upload.Sink

	if cfg.Database.Enabled {
		if db, err := database.Connect(ctx, cfg.Database); err != nil {
			logg.Warn("Upload journal disabled, database connection failed", zap.Error(err))
		} else {
			journal := upload.NewJournal(db)
			if err := journal.Migrate(); err != nil {
				logg.Warn("Upload journal disabled", zap.Error(err))
			} else {
				sinks = append(sinks, journal)
				logg.Info("Upload journal enabled", zap.String("database", cfg.Database.Name))
			}
		}
	}

	if cfg.Storage.MirrorEnabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			logg.Warn("Upload mirror disabled", zap.Error(err))
			return sinks
		}
		timeout := time.Duration(cfg.Storage.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		bctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := storage.EnsureBucket(bctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			logg.Warn("Upload mirror disabled", zap.Error(err))
			return sinks
		}
		sinks = append(sinks, upload.NewMirror(client, cfg.Storage.Bucket))
		logg.Info("Upload mirror enabled", zap.String("bucket", cfg.Storage.Bucket))
	}

	return sinks
}

// watchSettings restarts the listener when the settings file changes a bind setting.
func watchSettings(mgr *config.Manager, lc *listener.Lifecycle, ctl *control.Controller, logg *zap.Logger) (*logtail.Watcher, error) {
	w, err := logtail.New(mgr.Path(), logg)
	if err != nil {
		return nil, err
	}
	w.OnChange(func(string) {
		snap, err := mgr.Load()
		if err != nil {
			logg.Warn("Ignoring unreadable settings change", zap.Error(err))
			return
		}
		if !lc.NeedsRestart(snap) {
			return
		}
		logg.Info("Settings changed, restarting listener")
		if _, err := ctl.Start(); err != nil {
			logg.Error("Restart after settings change failed", zap.Error(err))
		}
	})
	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}
