package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/corvohq/turnbench/internal/bench"
	"github.com/corvohq/turnbench/internal/mockserver"
	"github.com/corvohq/turnbench/internal/observability"
	"github.com/corvohq/turnbench/internal/scenario"
)

var (
	logLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "turnbench",
	Short: "Turnbench — multi-turn conversation benchmark for streaming chat APIs",
	Long: "Benchmarks an OpenAI-compatible streaming chat endpoint with concurrent " +
		"multi-turn conversations, measuring time-to-first-token and total latency " +
		"to expose prefix cache behavior.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

var runCmd = &cobra.Command{
	Use:   "run <base-url>",
	Short: "Run the benchmark against a chat completion endpoint",
	Long: "Runs warm-up traffic then the timed benchmark against the given base URL " +
		"(e.g. http://localhost:8000/v1) and prints a latency report.",
	Args: cobra.ExactArgs(1),
	RunE: runBenchmark,
}

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Serve a mock streaming chat endpoint for local testing",
	RunE:  runMock,
}

var (
	docsDir        string
	conversations  int
	turns          int
	maxTokens      int
	workers        int
	warmupRequests int
	minDelay       time.Duration
	maxDelay       time.Duration
	timeout        time.Duration
	useHTTP2       bool
	insecureTLS    bool
	scenarioPath   string
	otelEnabled    bool
	otelEndpoint   string

	mockBind       string
	mockModel      string
	mockChunks     int
	mockChunkDelay time.Duration
	mockFailEvery  int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	defaults := bench.DefaultConfig()
	runCmd.Flags().StringVarP(&docsDir, "seed-documents", "d", "seed-documents", "Directory of seed documents to anchor conversations")
	runCmd.Flags().IntVarP(&conversations, "conversations", "c", defaults.Conversations, "Number of concurrent conversations")
	runCmd.Flags().IntVarP(&turns, "turns", "t", defaults.Turns, "Turns per conversation")
	runCmd.Flags().IntVarP(&maxTokens, "max-tokens", "m", defaults.MaxTokens, "Max completion tokens per turn")
	runCmd.Flags().IntVarP(&workers, "workers", "p", defaults.Workers, "Number of concurrent workers")
	runCmd.Flags().IntVar(&warmupRequests, "warmup-requests", defaults.WarmupRequests, "Serialized warm-up requests before the timed phase (0 disables)")
	runCmd.Flags().DurationVar(&minDelay, "min-delay", defaults.MinDelay, "Minimum simulated think time between a conversation's turns")
	runCmd.Flags().DurationVar(&maxDelay, "max-delay", defaults.MaxDelay, "Maximum simulated think time between a conversation's turns")
	runCmd.Flags().DurationVar(&timeout, "timeout", defaults.Timeout, "Per-request timeout")
	runCmd.Flags().BoolVar(&useHTTP2, "http2", false, "Use HTTP/2 cleartext (h2c) for plain http endpoints")
	runCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "Skip TLS certificate verification")
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "JSON scenario file; flags set on the command line take precedence")
	runCmd.Flags().BoolVar(&otelEnabled, "otel-enabled", false, "Enable OpenTelemetry tracing of benchmark requests")
	runCmd.Flags().StringVar(&otelEndpoint, "otel-endpoint", "", "OTLP HTTP endpoint (host:port) for traces; if empty uses stdout exporter")

	mockCmd.Flags().StringVar(&mockBind, "bind", ":8081", "HTTP bind address")
	mockCmd.Flags().StringVar(&mockModel, "model", "mock-model", "Model name reported by /models")
	mockCmd.Flags().IntVar(&mockChunks, "chunks", 20, "Content chunks streamed per completion")
	mockCmd.Flags().DurationVar(&mockChunkDelay, "chunk-delay", 10*time.Millisecond, "Delay between streamed chunks")
	mockCmd.Flags().IntVar(&mockFailEvery, "fail-every", 0, "Fail every Nth completion request with a 500 (0 disables)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(mockCmd)
}

func setupLogging() {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	if scenarioPath != "" {
		if err := applyScenario(cmd, scenarioPath); err != nil {
			return err
		}
	}
	if minDelay > maxDelay {
		return fmt.Errorf("min-delay (%s) must not exceed max-delay (%s)", minDelay, maxDelay)
	}

	otelShutdown, err := observability.InitTracer(otelEnabled, "turnbench", otelEndpoint)
	if err != nil {
		return fmt.Errorf("init otel: %w", err)
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Warn("otel shutdown error", "error", err)
		}
	}()

	cfg := bench.Config{
		BaseURL:        args[0],
		DocsDir:        docsDir,
		Conversations:  conversations,
		Turns:          turns,
		MaxTokens:      maxTokens,
		Workers:        workers,
		WarmupRequests: warmupRequests,
		MinDelay:       minDelay,
		MaxDelay:       maxDelay,
		Timeout:        timeout,
		UseHTTP2:       useHTTP2,
		InsecureTLS:    insecureTLS,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	report, err := bench.New(cfg).Run(ctx)
	if err != nil {
		return err
	}
	report.Write(os.Stdout)
	return nil
}

// applyScenario overlays scenario file values onto flags the user did not set
// explicitly. Command-line flags always win.
func applyScenario(cmd *cobra.Command, path string) error {
	s, err := scenario.Load(path)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if s.Conversations != nil && !flags.Changed("conversations") {
		conversations = *s.Conversations
	}
	if s.Turns != nil && !flags.Changed("turns") {
		turns = *s.Turns
	}
	if s.MaxTokens != nil && !flags.Changed("max-tokens") {
		maxTokens = *s.MaxTokens
	}
	if s.Workers != nil && !flags.Changed("workers") {
		workers = *s.Workers
	}
	if s.WarmupRequests != nil && !flags.Changed("warmup-requests") {
		warmupRequests = *s.WarmupRequests
	}
	if s.MinDelayMs != nil && !flags.Changed("min-delay") {
		minDelay = time.Duration(*s.MinDelayMs) * time.Millisecond
	}
	if s.MaxDelayMs != nil && !flags.Changed("max-delay") {
		maxDelay = time.Duration(*s.MaxDelayMs) * time.Millisecond
	}
	if s.TimeoutSec != nil && !flags.Changed("timeout") {
		timeout = time.Duration(*s.TimeoutSec) * time.Second
	}
	slog.Info("scenario applied", "path", path)
	return nil
}

func runMock(cmd *cobra.Command, args []string) error {
	srv := mockserver.New(mockserver.Config{
		Model:      mockModel,
		Chunks:     mockChunks,
		ChunkDelay: mockChunkDelay,
		FailEvery:  mockFailEvery,
	})

	httpSrv := &http.Server{Addr: mockBind, Handler: srv.Handler()}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock server error", "error", err)
			os.Exit(1)
		}
	}()
	slog.Info("mock server ready", "bind", mockBind, "model", mockModel)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigCh
	slog.Info("received shutdown signal", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("mock server shutdown error; forcing close", "error", err)
		return httpSrv.Close()
	}
	slog.Info("mock server stopped")
	return nil
}
