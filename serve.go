package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	api "lifeos-backend/cmd/api"
	"lifeos-backend/internal/digest"
	"lifeos-backend/internal/item/scheduler"
	itemUsecase "lifeos-backend/internal/item/usecase"
	"lifeos-backend/internal/item/worker"
	"lifeos-backend/internal/notification"
	"lifeos-backend/pkg/ai"
	"lifeos-backend/pkg/calendar"
	"lifeos-backend/pkg/chroma"
	"lifeos-backend/pkg/fcm"
	"lifeos-backend/pkg/sse"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var (
	servePort      string
	serveNoDigests bool
)

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (defaults to PORT)")
	serveCmd.Flags().BoolVar(&serveNoDigests, "no-digests", false, "do not schedule the morning and night briefs")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard API",
	Long: `Run the HTTP API together with the reminder scheduler, the digest
scheduler and the change stream.

Examples:
  # Serve against PostgreSQL
  lifeos serve

  # Try it out without a database
  lifeos serve --memory --port 9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	a, err := newApp(cfg, memoryStore)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.ensureOwner(ctx); err != nil {
		// Login and the capture key need the owner; the API still serves health and metrics
		log.Error().Err(err).Msg("[App] Owner account unavailable")
	}

	// Initialize SSE Manager
	sseManager := sse.NewManager()
	go sseManager.Run()
	defer sseManager.Stop()

	// Change feed -> SSE (and Pub/Sub when a project is configured)
	notifier := notification.NewService(a.feed, sseManager)
	if cfg.GoogleProjectID != "" {
		// Extract short topic name from full resource name if necessary
		topicName := cfg.GooglePubSubTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}
		if err := notifier.EnablePubSub(ctx, cfg.GoogleProjectID, topicName, cfg.GoogleCredentials); err != nil {
			log.Warn().Err(err).Msg("[App] Pub/Sub disabled")
		}
	}
	notifier.Start(ctx)
	defer notifier.Stop()

	// Extraction
	settings := ai.NewRuntimeSettings(cfg.OllamaBaseURL, cfg.OllamaModel)
	extractor, err := ai.NewExtractor(ai.Config{
		Provider:      ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:  cfg.GeminiApiKey,
		GeminiModel:   cfg.GeminiModel,
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
	}, settings)
	if err != nil {
		log.Warn().Err(err).Msg("[App] Extraction disabled, captures fall back to plain tasks")
		extractor = nil
	} else {
		log.Info().Str("provider", cfg.AIProvider).Msg("[App] Extraction configured")
	}

	// Calendar sync and embedding upserts run off the request path
	sideEffects := worker.NewPool(worker.DefaultWorkers, worker.DefaultQueueSize)
	sideEffects.Start()
	defer sideEffects.Stop()

	items := itemUsecase.NewItemUsecase(a.items, extractor, cfg.Location)
	items.SetBackgroundRunner(sideEffects.Go)
	wireCalendar(ctx, items, cfg.CalendarID, cfg.Timezone, cfg.GoogleCredentials, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRefreshToken)
	if cfg.ChromaAPIKey != "" {
		chromaClient, err := chroma.NewChromaClient(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("[App] Chroma unavailable, semantic search disabled")
		} else {
			items.SetVectorIndex(chromaClient)
			log.Info().Msg("[App] Semantic search enabled")
		}
	}

	// Push reminders
	var sender fcm.Sender
	if cfg.FirebaseCredentials != "" {
		client, err := fcm.NewClient(ctx, cfg.FirebaseCredentials)
		if err != nil {
			log.Warn().Err(err).Msg("[App] Failed to initialize FCM client (push reminders disabled)")
		} else {
			sender = client
		}
	}
	reminders := scheduler.NewReminderScheduler(a.items, a.fcmTokens, sender, cfg.Location, cfg.FrontendURL)
	reminders.Start()
	defer reminders.Stop()

	// Digests
	if !serveNoDigests {
		digests := digest.NewService(a.items, a.mailer(ctx), cfg.Location, cfg.DigestSender, cfg.DigestRecipient)
		digestScheduler, err := digest.NewScheduler(digests, cfg.Location, cfg.MorningDigestSpec, cfg.NightDigestSpec, a.ownerID)
		if err != nil {
			return err
		}
		digestScheduler.Start()
		defer digestScheduler.Stop()
	}

	handler := api.NewHandler(api.Dependencies{
		AuthUsecase: a.auth,
		ItemUsecase: items,
		SSEManager:  sseManager,
		Settings:    settings,
		Config:      cfg,
		OwnerID:     a.ownerID,
		HealthCheck: a.healthCheck,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- handler.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("[Server] Shutting down")
	// Event streams never go idle on their own
	sseManager.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := handler.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func wireCalendar(ctx context.Context, items itemUsecase.ItemUsecase, calendarID, timezone, credentials, clientID, clientSecret, refreshToken string) {
	svc, err := calendar.NewService(ctx, calendar.Options{
		CalendarID:      calendarID,
		Timezone:        timezone,
		CredentialsFile: credentials,
		ClientID:        clientID,
		ClientSecret:    clientSecret,
		RefreshToken:    refreshToken,
	})
	switch {
	case errors.Is(err, calendar.ErrNotConfigured):
		log.Info().Msg("[App] Calendar sync not configured")
	case err != nil:
		log.Warn().Err(err).Msg("[App] Calendar sync disabled")
	default:
		items.SetCalendar(svc)
		log.Info().Str("calendar_id", calendarID).Msg("[App] Calendar sync enabled")
	}
}
