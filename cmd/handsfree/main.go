package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/studyai/handsfree/adapters/audio"
	"github.com/studyai/handsfree/adapters/live"
	"github.com/studyai/handsfree/adapters/llm"
	"github.com/studyai/handsfree/adapters/store"
	"github.com/studyai/handsfree/domain/entities"
	"github.com/studyai/handsfree/domain/repositories"
	"github.com/studyai/handsfree/internal/api"
	"github.com/studyai/handsfree/internal/pcm"
	"github.com/studyai/handsfree/internal/session"
)

func main() {
	// .env is optional; real environments set variables directly
	godotenv.Load()

	askFlag := flag.String("ask", "", "answer a single text prompt and exit")
	modeFlag := flag.String("mode", "standard", "text mode: standard, lite, thinking or search")
	sayFlag := flag.String("say", "", "synthesize the given text to speech and exit")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		logger.Fatal("GEMINI_API_KEY environment variable is required")
	}

	settings := loadSettings()
	ctx := context.Background()

	switch {
	case *askFlag != "":
		runAsk(ctx, apiKey, *askFlag, *modeFlag, settings, logger)
	case *sayFlag != "":
		runSay(ctx, apiKey, *sayFlag, settings, logger)
	default:
		runVoice(ctx, apiKey, settings, logger)
	}
}

func loadSettings() entities.Settings {
	return entities.Settings{
		UserName: os.Getenv("HANDSFREE_USER_NAME"),
		Memory:   parseMemory(os.Getenv("HANDSFREE_MEMORY")),
		TTSVoice: envOr("HANDSFREE_VOICE", session.DefaultVoice),
	}
}

// parseMemory reads "key=value;key=value" into memory facts
func parseMemory(raw string) []entities.MemoryFact {
	var facts []entities.MemoryFact
	for _, pair := range strings.Split(raw, ";") {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			continue
		}
		facts = append(facts, entities.MemoryFact{Key: key, Value: value})
	}
	return facts
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// runAsk answers one prompt in the requested text mode and exits
func runAsk(ctx context.Context, apiKey, prompt, mode string, settings entities.Settings, logger *zap.Logger) {
	generator, err := llm.NewGemini(ctx, apiKey, logger)
	if err != nil {
		logger.Fatal("Failed to create text generator", zap.Error(err))
	}

	generationMode := repositories.GenerationMode(mode)
	switch generationMode {
	case repositories.ModeStandard, repositories.ModeLite, repositories.ModeThinking, repositories.ModeSearch:
	default:
		logger.Fatal("Unknown mode", zap.String("mode", mode))
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	result, err := generator.Generate(ctx, generationMode, prompt, nil, settings)
	if err != nil {
		logger.Fatal("Generation failed", zap.Error(err))
	}
	newDisplay().Answer(result)
}

// runSay synthesizes text to speech and plays it through the speaker
func runSay(ctx context.Context, apiKey, text string, settings entities.Settings, logger *zap.Logger) {
	generator, err := llm.NewGemini(ctx, apiKey, logger)
	if err != nil {
		logger.Fatal("Failed to create text generator", zap.Error(err))
	}

	synthCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	data, err := generator.Synthesize(synthCtx, text, settings.TTSVoice)
	if err != nil {
		logger.Fatal("Synthesis failed", zap.Error(err))
	}

	frame, err := pcm.BytesToFrame(data, repositories.PlaybackSampleRate, 1)
	if err != nil {
		logger.Fatal("Synthesized audio is malformed", zap.Error(err))
	}

	player, err := audio.NewPlayer(logger)
	if err != nil {
		logger.Fatal("Failed to acquire output device", zap.Error(err))
	}

	done := make(chan struct{})
	if _, err := player.Start(frame, player.Now(), func() { close(done) }); err != nil {
		logger.Fatal("Playback failed", zap.Error(err))
	}
	<-done
}

// runVoice drives a full hands-free session until interrupted
func runVoice(ctx context.Context, apiKey string, settings entities.Settings, logger *zap.Logger) {
	dataDir := envOr("HANDSFREE_DATA_DIR", "data")
	conversations, err := store.NewBadger(store.Options{Dir: dataDir, Logger: logger})
	if err != nil {
		logger.Fatal("Failed to open conversation store", zap.Error(err))
	}
	defer conversations.Close()

	player, err := audio.NewPlayer(logger)
	if err != nil {
		logger.Fatal("Failed to acquire output device", zap.Error(err))
	}

	ui := newDisplay()
	controller, err := session.New(session.Config{
		Model:        envOr("HANDSFREE_MODEL", session.DefaultModel),
		Voice:        settings.TTSVoice,
		Settings:     settings,
		Transport:    live.NewTransport(apiKey, logger),
		Capture:      audio.NewCapture(logger),
		Player:       player,
		Sink:         conversations,
		Logger:       logger,
		OnStatus:     ui.Status,
		OnTranscript: ui.Transcript,
	})
	if err != nil {
		logger.Fatal("Failed to create session", zap.Error(err))
	}

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	monitor := session.NewMonitor(session.MonitorConfig{},
		controller.InputLevel, controller.OutputLevel, controller.ActiveOutputs, ui.Speaker)
	go monitor.Run(monitorCtx)

	server := startAPIServer(controller, conversations, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Info("Shutting down on signal")
		controller.Exit()
	}()

	if err := controller.Run(ctx); err != nil {
		logger.Error("Session ended with error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("API server forced to shut down", zap.Error(err))
	}
}

// startAPIServer exposes the observability surface while a session runs
func startAPIServer(controller *session.Controller, conversations repositories.ConversationStore, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	api.InitRoutes(e, func() api.SessionStatus { return controller }, conversations, logger)

	port := envOr("PORT", "8080")
	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Error("API server stopped", zap.Error(err))
		}
	}()
	logger.Info("API server started", zap.String("port", port))
	return e
}
