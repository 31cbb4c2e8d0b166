package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"newsposter/internal/analyze"
	"newsposter/internal/api"
	"newsposter/internal/compose"
	"newsposter/internal/config"
	"newsposter/internal/feed"
	"newsposter/internal/media"
	"newsposter/internal/orchestrator"
	"newsposter/internal/statuslog"
	"newsposter/internal/task"
	"newsposter/internal/telemetry"
	"newsposter/internal/webhook"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "newsposter",
	Short: "Turns news feeds into branded social image posts",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional; real deployments set the environment directly
		_ = godotenv.Load()
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server with the dashboard and batch API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single batch headless and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yml", "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func serve() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	secrets := config.SecretsFromEnv()

	shutdownTracing, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName:  "newsposter",
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	statusLog, orch, err := buildPipeline(cfg, secrets)
	if err != nil {
		return err
	}

	router := setupRouter()
	apiHandler := api.NewAPI(orch, statusLog, cfg.UIPassword)
	apiHandler.RegisterRoutes(router)
	apiHandler.RegisterUIRoutes(router)

	const (
		readHeaderTimeout = 5 * time.Second
		shutdownTimeout   = 10 * time.Second
	)

	srv := newHTTPServer(cfg.Port, router, readHeaderTimeout)

	go func() {
		log.Info().Int("port", cfg.Port).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdownSignal()
	gracefulShutdown(srv, orch, shutdownTracing, shutdownTimeout)
	return nil
}

func runOnce() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	secrets := config.SecretsFromEnv()

	_, orch, err := buildPipeline(cfg, secrets)
	if err != nil {
		return err
	}

	batchID, ok := orch.TryStart()
	if !ok {
		return fmt.Errorf("batch already running")
	}
	log.Info().Str("batch_id", batchID).Msg("headless batch started")

	for orch.Running() {
		time.Sleep(500 * time.Millisecond)
	}

	state := orch.State()
	log.Info().
		Int("completed", state.Completed).
		Int("total", len(state.Tasks)).
		Msg("headless batch finished")
	for _, tk := range state.Tasks {
		if tk.Status == task.StatusError {
			log.Warn().Str("category", tk.ID).Str("error", tk.Error).Msg("task failed")
		}
	}
	if state.Completed == 0 {
		return fmt.Errorf("batch produced no posts")
	}
	return nil
}

func buildPipeline(cfg config.Config, secrets config.Secrets) (*statuslog.Log, *orchestrator.Orchestrator, error) {
	logo, err := compose.LoadImageFile(cfg.LogoPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load logo: %w", err)
	}
	overlay, err := compose.LoadImageFile(cfg.OverlayPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load overlay: %w", err)
	}
	composer, err := compose.NewComposer(logo, overlay, cfg.BrandText)
	if err != nil {
		return nil, nil, fmt.Errorf("build composer: %w", err)
	}

	var mirror statuslog.Mirror
	if cfg.Mirror.URL != "" {
		mirror = statuslog.NewHTTPMirror(cfg.Mirror.URL)
	}
	statusLog := statuslog.New(mirror)

	orch := orchestrator.New(orchestrator.Deps{
		Feed:     feed.NewClient(cfg.Feed.BaseURL, secrets.FeedAPIKey, cfg.Feed.Language, cfg.Feed.Country),
		Selector: analyze.NewSelector(secrets.AnthropicAPIKey, analyze.Settings{
			Model:       cfg.Analysis.Model,
			MaxTokens:   cfg.Analysis.MaxTokens,
			Temperature: cfg.Analysis.Temperature,
		}),
		Loader:    media.NewFetcher(),
		Generator: media.NewGenerator(cfg.ImageGen.BaseURL, secrets.ImageGenAPIKey, cfg.ImageGen.Model, cfg.ImageGen.Size),
		Composer:  composer,
		Uploader:  media.NewUploader(cfg.Upload.BaseURL, secrets.UploadAPIKey),
		Notifier:  webhook.NewNotifier(cfg.Webhook.URL, secrets.WebhookToken),
		Log:       statusLog,
	}, cfg.Categories, time.Duration(cfg.InterCategoryDelaySeconds)*time.Second)

	return statusLog, orch, nil
}

func setupRouter() *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(api.ZerologLogger())
	return r
}

func newHTTPServer(port int, handler http.Handler, readHeaderTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func waitForShutdownSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")
}

func gracefulShutdown(srv *http.Server, orch *orchestrator.Orchestrator, shutdownTracing func(context.Context) error, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown warning")
	}

	// A running batch finishes its current task list; give it the same grace window.
wait:
	for orch.Running() {
		select {
		case <-ctx.Done():
			log.Warn().Msg("batch still running at shutdown deadline")
			break wait
		case <-time.After(100 * time.Millisecond):
		}
	}

	if err := shutdownTracing(ctx); err != nil {
		log.Warn().Err(err).Msg("tracing shutdown warning")
	}
	log.Info().Msg("server exited cleanly")
}
