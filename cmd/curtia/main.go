package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/xggarcia/Curt-IA/internal/agents"
	"github.com/xggarcia/Curt-IA/internal/config"
	"github.com/xggarcia/Curt-IA/internal/feed"
	"github.com/xggarcia/Curt-IA/internal/genai"
	"github.com/xggarcia/Curt-IA/internal/keypool"
	"github.com/xggarcia/Curt-IA/internal/notify"
	"github.com/xggarcia/Curt-IA/internal/ratelimit"
	"github.com/xggarcia/Curt-IA/internal/voting"
	"github.com/xggarcia/Curt-IA/internal/workflow"
)

func main() {
	idea := flag.String("idea", "", "Subject description for a new run")
	script := flag.String("script", "", "Path to an existing script to refine instead of drafting from scratch")
	resume := flag.Bool("resume", false, "Resume the run stored in the checkpoint")
	output := flag.String("output", "", "Output directory (overrides config)")
	configPath := flag.String("config", "", "Path to YAML config file")
	listen := flag.String("listen", "", "Enable the WebSocket progress feed on this address")
	flag.Parse()

	if err := run(*idea, *script, *resume, *output, *configPath, *listen); err != nil {
		fmt.Fprintf(os.Stderr, "curtia: %v\n", err)
		os.Exit(1)
	}
}

func run(idea, scriptPath string, resume bool, outputDir, configPath, listenAddr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	if listenAddr != "" {
		cfg.Feed.Enabled = true
		cfg.Feed.ListenAddr = listenAddr
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(logger)

	if !resume && idea == "" && scriptPath == "" {
		return errors.New("either -idea, -script or -resume is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down, checkpoint preserved for -resume")
		cancel()
	}()

	// Generation stack: provider behind a rotating credential pool and a
	// request pacer shared by every agent.
	provider, err := genai.NewProvider(genai.ProviderConfig{
		Provider: cfg.Provider.Name,
		Model:    cfg.Provider.Model,
		BaseURL:  cfg.Provider.BaseURL,
	})
	if err != nil {
		return err
	}
	pool, err := keypool.New(cfg.Credentials, logger, keypool.WithCooldown(cfg.Limits.Cooldown.Std()))
	if err != nil {
		return err
	}
	limiter := ratelimit.New(cfg.Limits.MaxRequestsPerWindow, cfg.Limits.Window.Std(), logger)
	client := genai.NewClient(provider, pool, limiter, logger)
	logger.Info("generation client ready",
		"provider", provider.Name(), "credentials", pool.Size(),
		"rate_limit", cfg.Limits.MaxRequestsPerWindow, "window", cfg.Limits.Window.Std())

	director := agents.NewDirector(client, cfg.Quality.EmergencyThreshold, logger)
	writer := agents.NewScriptwriter(client, logger)
	critics := []workflow.Evaluator{
		agents.NewTechnicalCritic(client, logger),
		agents.NewNarrativeCritic(client, logger),
		agents.NewAudienceCritic(client, logger),
	}
	votes, err := voting.NewAggregator(cfg.Quality.DefaultThreshold)
	if err != nil {
		return err
	}

	deps := workflow.Deps{
		Director: director,
		Writer:   writer,
		Critics:  critics,
		Votes:    votes,
		Store:    workflow.NewCheckpointStore(filepath.Join(cfg.Output.Dir, "workflow_state.json")),
		Logger:   logger,
	}

	opts, err := buildOptions(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var orch *workflow.Orchestrator
	switch {
	case resume:
		orch, err = workflow.Load(orchConfig(cfg), deps, opts...)
	case scriptPath != "":
		base, readErr := os.ReadFile(scriptPath)
		if readErr != nil {
			return fmt.Errorf("read base script: %w", readErr)
		}
		subject := idea
		if subject == "" {
			subject = "Refine the supplied script"
		}
		opts = append(opts, workflow.WithBaseScript(string(base)))
		orch, err = workflow.New(orchConfig(cfg), subject, deps, opts...)
	default:
		orch, err = workflow.New(orchConfig(cfg), idea, deps, opts...)
	}
	if err != nil {
		return err
	}

	final, err := orch.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("final script written", "path", filepath.Join(cfg.Output.Dir, "final_script.txt"), "bytes", len(final))
	return nil
}

func orchConfig(cfg config.Config) workflow.Config {
	return workflow.Config{
		MaxIterations:      cfg.Quality.MaxIterations,
		DefaultThreshold:   cfg.Quality.DefaultThreshold,
		EmergencyThreshold: cfg.Quality.EmergencyThreshold,
		OutputDir:          cfg.Output.Dir,
	}
}

// buildOptions wires the optional integrations: chat notifications and
// the live progress feed. A misconfigured channel disables itself with a
// warning instead of blocking the run.
func buildOptions(ctx context.Context, cfg config.Config, logger *slog.Logger) ([]workflow.Option, error) {
	var opts []workflow.Option

	var channels []notify.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" {
		n, err := notify.NewTelegram(tg.BotToken, tg.ChatID, logger)
		if err != nil {
			logger.Warn("telegram notifications disabled", "err", err)
		} else {
			channels = append(channels, n)
		}
	}
	if dc := cfg.Notifications.Discord; dc.BotToken != "" {
		n, err := notify.NewDiscord(dc.BotToken, dc.ChannelID, logger)
		if err != nil {
			logger.Warn("discord notifications disabled", "err", err)
		} else {
			channels = append(channels, n)
		}
	}
	if len(channels) > 0 {
		opts = append(opts, workflow.WithNotifier(notify.NewMulti(logger, channels...)))
	}

	if cfg.Feed.Enabled {
		hub := feed.NewHub(logger)
		go func() {
			if err := hub.Serve(ctx, cfg.Feed.ListenAddr); err != nil {
				logger.Warn("progress feed stopped", "err", err)
			}
		}()
		opts = append(opts, workflow.WithEventSink(hub))
	}

	return opts, nil
}
