package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"mercator-hq/matchgram/pkg/cli"
	"mercator-hq/matchgram/pkg/config"
	"mercator-hq/matchgram/pkg/evidence/recorder"
	"mercator-hq/matchgram/pkg/evidence/retention"
	"mercator-hq/matchgram/pkg/evidence/storage"
	"mercator-hq/matchgram/pkg/message"
	"mercator-hq/matchgram/pkg/ruleset"
	"mercator-hq/matchgram/pkg/ruleset/git"
	"mercator-hq/matchgram/pkg/server"
	"mercator-hq/matchgram/pkg/telemetry/health"
	"mercator-hq/matchgram/pkg/telemetry/logging"
	"mercator-hq/matchgram/pkg/telemetry/metrics"
	"mercator-hq/matchgram/pkg/telemetry/tracing"
	"mercator-hq/matchgram/pkg/transport/natsbus"
)

var runFlags struct {
	listenAddress string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the matchgram service",
	Long: `Load the rule sets and serve the HTTP API, and the NATS consumer when
enabled. Rule sets are reloaded on change, from the filesystem or from git,
and verdicts are recorded as evidence.

Examples:
  # Start with default config
  matchgram run

  # Start with custom config
  matchgram run --config /etc/matchgram/config.yaml

  # Override listen address
  matchgram run --listen 0.0.0.0:8080

  # Validate config and rules without starting
  matchgram run --dry-run`,
	RunE: runService,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "load config and rules without starting")
}

// service holds the components started by run, in start order.
type service struct {
	cfg       *config.Config
	logger    *logging.Logger
	tracer    *tracing.Tracer
	metrics   *metrics.Collector
	health    *health.Checker
	manager   *ruleset.Manager
	git       *git.Watcher
	recorder  *recorder.Recorder
	scheduler *retention.Scheduler
	bus       *natsbus.Bus

	closers []func() error
}

func runService(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, stop := cli.SignalContext(commandContext(cmd))
	defer stop()

	out := cmd.ErrOrStderr()
	svc := &service{cfg: cfg, logger: logger}
	defer svc.close()

	if err := svc.start(ctx, out); err != nil {
		return cli.NewCommandError("run", err)
	}
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration and rules valid")
		return nil
	}
	if err := svc.serve(ctx, out); err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Fprintln(out, "✓ Stopped")
	return nil
}

func (s *service) start(ctx context.Context, out io.Writer) error {
	cfg := s.cfg

	tracer, err := tracing.New(cfg.Telemetry.Tracing)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	s.tracer = tracer
	s.onClose(func() error { return tracer.Shutdown(context.Background()) })

	if cfg.Telemetry.Metrics.Enabled {
		s.metrics = metrics.NewCollector(cfg.Telemetry.Metrics, nil)
	}
	s.health = health.New(0)

	if err := s.startRules(ctx, out); err != nil {
		return err
	}
	if cfg.Evidence.Enabled {
		if err := s.startEvidence(ctx, out); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) startRules(ctx context.Context, out io.Writer) error {
	reg, err := s.cfg.Compiler.Registry()
	if err != nil {
		return cli.NewConfigError("compiler", err.Error())
	}
	opts := ruleset.Options{
		Path:     s.cfg.Rules.Path,
		Fields:   reg,
		Debounce: s.cfg.Rules.Debounce,
		Logger:   s.logger,
		Metrics:  s.metrics,
		Tracer:   s.tracer,
	}

	if s.cfg.Rules.Mode == "git" {
		repo, err := git.NewRepository(s.cfg.Rules.Git)
		if err != nil {
			return err
		}
		opts.Path = repo.RulesPath()
		s.manager = ruleset.NewManager(opts)
		s.git = git.NewWatcher(repo, s.manager, s.cfg.Rules.Git.PollInterval, s.logger)
		if err := s.git.Sync(ctx); err != nil {
			return err
		}
	} else {
		s.manager = ruleset.NewManager(opts)
		if err := s.manager.Load(ctx); err != nil {
			return err
		}
	}
	s.health.Require("rules", s.manager.HealthCheck)

	st := s.manager.Status()
	fmt.Fprintf(out, "✓ Rules loaded (%d sets, %d rules, version %s)\n", st.Sets, st.Rules, st.Version)
	return nil
}

func (s *service) startEvidence(ctx context.Context, out io.Writer) error {
	store, err := storage.Open(ctx, s.cfg.Evidence, s.logger)
	if err != nil {
		return err
	}
	s.onClose(store.Close)
	s.health.Require("evidence", store.Ping)

	s.recorder = recorder.New(store, recorder.ConfigFrom(s.cfg.Evidence), s.logger, s.metrics)
	s.onClose(s.recorder.Close)

	pruner := retention.NewPruner(store, s.cfg.Evidence.Retention, s.logger, s.metrics)
	s.scheduler = retention.NewScheduler(pruner, s.cfg.Evidence.Retention.PruneSchedule, s.logger)
	if err := s.scheduler.Start(ctx); err != nil {
		return err
	}
	s.onClose(func() error { s.scheduler.Stop(); return nil })

	fmt.Fprintf(out, "✓ Evidence store initialized (%s)\n", s.cfg.Evidence.Backend)
	return nil
}

func (s *service) serve(ctx context.Context, out io.Writer) error {
	validator, err := message.NewValidator()
	if err != nil {
		return err
	}

	var rec server.Recorder
	if s.recorder != nil {
		rec = s.recorder
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	background := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errs <- fmt.Errorf("%s: %w", name, err)
				cancel()
			}
		}()
	}

	switch {
	case s.git != nil:
		background("git watcher", s.git.Run)
	case s.cfg.Rules.Watch:
		background("rules watcher", s.manager.Watch)
	}

	if nc := s.cfg.Transport.NATS; nc.Enabled {
		s.bus = natsbus.New(natsbus.Options{
			Config:    nc,
			Evaluator: s.manager,
			Recorder:  rec,
			Validator: validator,
			Tracer:    s.tracer,
			Logger:    s.logger,
		})
		if err := s.bus.Connect(ctx); err != nil {
			return err
		}
		s.health.Observe("nats", s.bus.HealthCheck)
		background("nats", s.bus.Run)
		fmt.Fprintf(out, "✓ Consuming %s from %s\n", nc.Subject, nc.URL)
	}

	srv := server.New(server.Options{
		Config:      s.cfg.Server,
		MetricsPath: s.cfg.Telemetry.Metrics.Path,
		Manager:     s.manager,
		Recorder:    rec,
		Validator:   validator,
		Health:      s.health,
		Metrics:     s.metrics,
		Tracer:      s.tracer,
		Logger:      s.logger,
		Build:       server.BuildInfo{Version: Version, Commit: GitCommit, BuildTime: BuildDate},
	})
	fmt.Fprintf(out, "✓ Listening on %s\n", s.cfg.Server.ListenAddress)
	background("http server", srv.Start)

	wg.Wait()
	close(errs)
	var all []error
	for err := range errs {
		all = append(all, err)
	}
	return errors.Join(all...)
}

func (s *service) onClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// close releases components in reverse start order.
func (s *service) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("Shutdown step failed", "error", err)
		}
	}
}
