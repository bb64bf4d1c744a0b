package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/signalsfoundry/mission-scenarios/internal/logging"
	"github.com/signalsfoundry/mission-scenarios/internal/observability"
	"github.com/signalsfoundry/mission-scenarios/scenarios"
	"github.com/signalsfoundry/mission-scenarios/simapi"
)

func main() {
	name := flag.String("scenario", "", "name of the scenario to run")
	list := flag.Bool("list", false, "list available scenarios and exit")
	outDir := flag.String("out", "output", "directory for rendered plots and captures")
	paramsPath := flag.String("params", "", "optional JSON file of scenario parameter overrides")
	metricsAddr := flag.String("metrics-addr", "", "address for the Prometheus /metrics endpoint (disabled when empty)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	timeout := flag.Duration("timeout", 2*time.Hour, "overall scenario deadline")

	flag.Parse()

	if *list {
		for _, n := range scenarios.Names() {
			s, _ := scenarios.Lookup(n)
			fmt.Printf("%-24s %s\n", n, s.Description())
		}
		return
	}

	log := logging.New(logging.Config{Level: *logLevel, Format: *logFormat})

	if err := run(*name, *outDir, *paramsPath, *metricsAddr, *timeout, log); err != nil {
		log.Error(context.Background(), "scenario failed", logging.Err(err))
		os.Exit(1)
	}
}

func run(name, outDir, paramsPath, metricsAddr string, timeout time.Duration, log logging.Logger) error {
	if name == "" {
		return fmt.Errorf("no scenario selected, use -scenario (or -list to see the choices)")
	}
	scenario, ok := scenarios.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown scenario %q, use -list to see the choices", name)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	creds, err := simapi.LoadCredentials()
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	collector, err := observability.NewAPICollector(nil)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				log.Warn(ctx, "metrics listener stopped", logging.Err(err))
			}
		}()
		log.Info(ctx, "metrics endpoint up", logging.String("addr", metricsAddr))
	}

	params, err := scenarios.LoadParams(paramsPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	env := &scenarios.Env{
		Creds:   creds,
		Log:     log.With(logging.String("scenario", name)),
		OutDir:  outDir,
		Params:  params,
		Options: []simapi.Option{simapi.WithMetrics(collector)},
	}

	log.Info(ctx, "scenario starting",
		logging.String("scenario", name),
		logging.String("api", creds.BaseURL()),
	)
	start := time.Now()
	if err := scenario.Run(ctx, env); err != nil {
		return fmt.Errorf("scenario %s: %w", name, err)
	}
	log.Info(ctx, "scenario complete",
		logging.String("scenario", name),
		logging.Float64("elapsed_s", time.Since(start).Seconds()),
	)
	return nil
}
