package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eugener/genai"
	"github.com/eugener/genai/internal/config"
	"github.com/eugener/genai/internal/core"
	"github.com/eugener/genai/internal/telemetry"
)

func run(configPath, subcommand string, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("starting genai-cli", "version", version, "base_url", cfg.BaseURL, "model", cfg.Model)

	client, err := genai.NewClient(cfg)
	if err != nil {
		return err
	}

	if cfg.Telemetry.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		reg.MustRegister(collectors.NewGoCollector())
		metrics := telemetry.NewMetrics(reg)
		client = client.WithMetrics(metrics)

		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			slog.Info("metrics endpoint listening", "addr", ":9090")
			if err := http.ListenAndServe(":9090", mux); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
	}

	var tracingShutdown func(context.Context) error
	if cfg.Telemetry.Tracing.Enabled {
		shutdown, err := telemetry.SetupTracing(context.Background(), cfg.Telemetry.Tracing.Endpoint, cfg.Telemetry.Tracing.SampleRate)
		if err != nil {
			slog.Warn("tracing setup failed, continuing without tracing", "error", err)
		} else {
			tracingShutdown = shutdown
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("interrupted, cancelling in-flight requests")
		cancel()
	}()

	model := client.Model(cfg.Model)

	err = dispatch(ctx, client, model, subcommand, args)

	if tracingShutdown != nil {
		if shutdownErr := tracingShutdown(context.Background()); shutdownErr != nil {
			slog.Error("tracing shutdown error", "error", shutdownErr)
		}
	}
	return err
}

func dispatch(ctx context.Context, client *genai.Client, model *genai.Model, subcommand string, args []string) error {
	switch subcommand {
	case "generate":
		return runGenerate(ctx, model, args)
	case "stream":
		return runStream(ctx, model, args)
	case "tokenize":
		return runTokenize(ctx, model, args)
	case "models":
		return runModels(ctx, model)
	case "tune":
		return runTune(ctx, client, args)
	default:
		return fmt.Errorf("unknown subcommand %q", subcommand)
	}
}

// readPrompts returns args as the prompts, one per argument, or if args is
// empty reads one prompt per non-blank line from stdin.
func readPrompts(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	var prompts []string
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			prompts = append(prompts, line)
		}
	}
	return prompts, scanner.Err()
}

func runGenerate(ctx context.Context, model *genai.Model, args []string) error {
	prompts, err := readPrompts(args)
	if err != nil {
		return err
	}
	for item := range model.Generate(ctx, prompts, core.GenerateParams{}) {
		if item.Err != nil {
			return item.Err
		}
		fmt.Println(item.Result.GeneratedText)
	}
	return nil
}

func runStream(ctx context.Context, model *genai.Model, args []string) error {
	prompts, err := readPrompts(args)
	if err != nil {
		return err
	}
	for item := range model.GenerateStream(ctx, prompts, core.GenerateParams{}) {
		if item.Err != nil {
			return item.Err
		}
		if item.Result.GeneratedText != "" {
			fmt.Print(item.Result.GeneratedText)
		}
	}
	fmt.Println()
	return nil
}

func runTokenize(ctx context.Context, model *genai.Model, args []string) error {
	prompts, err := readPrompts(args)
	if err != nil {
		return err
	}
	for item := range model.Tokenize(ctx, prompts, core.TokenParams{ReturnTokens: true}) {
		if item.Err != nil {
			return item.Err
		}
		fmt.Printf("%s\t%d tokens\n", item.Result.InputText, item.Result.TokenCount)
	}
	return nil
}

func runModels(ctx context.Context, model *genai.Model) error {
	info, err := model.Info(ctx)
	if err != nil {
		return err
	}
	if info == nil {
		fmt.Println("model not listed by the service")
		return nil
	}
	fmt.Printf("%s\t%s\t%d token limit\n", info.ID, info.Name, info.TokenLimit)
	return nil
}

func runTune(ctx context.Context, client *genai.Client, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: tune <status|delete> <tune-id>")
	}
	tunes := client.Tunes()
	tuneID := args[1]

	switch args[0] {
	case "status":
		status, err := tunes.Status(ctx, tuneID)
		if err != nil {
			return err
		}
		fmt.Println(status)
		return nil
	case "delete":
		return tunes.Delete(ctx, tuneID)
	default:
		return fmt.Errorf("unknown tune subcommand %q", args[0])
	}
}
