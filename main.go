package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/alexander-kastil/talk-low-code-process/internal/api"
	"github.com/alexander-kastil/talk-low-code-process/internal/cache"
	"github.com/alexander-kastil/talk-low-code-process/internal/config"
	"github.com/alexander-kastil/talk-low-code-process/internal/email"
	"github.com/alexander-kastil/talk-low-code-process/internal/random"
	"github.com/alexander-kastil/talk-low-code-process/internal/services"
	"github.com/alexander-kastil/talk-low-code-process/internal/storage"
	"github.com/alexander-kastil/talk-low-code-process/internal/store"
	"github.com/alexander-kastil/talk-low-code-process/internal/store/memstore"
	"github.com/alexander-kastil/talk-low-code-process/internal/store/mongostore"
	"github.com/alexander-kastil/talk-low-code-process/internal/store/pgstore"
	"github.com/alexander-kastil/talk-low-code-process/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (offer notification worker), 'all' (default)")

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		return pgstore.Open(ctx, cfg.PostgresURL)
	case config.StoreMemory:
		log.Println("Warning: STORE_DRIVER=memory, data is lost on restart and not shared between processes.")
		return memstore.New(), nil
	default:
		return mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDbName)
	}
}

// needsRedis reports whether the process cannot run without Redis.
func needsRedis(cfg *config.Config) bool {
	return cfg.RunMode != "api" || cfg.NotifyMode == config.NotifyQueue || cfg.MockServices
}

func newRandomProvider(cfg *config.Config) random.Provider {
	if cfg.RandomSeed != nil {
		log.Printf("Warning: RANDOM_SEED=%d set, offers are reproducible.", *cfg.RandomSeed)
		return random.NewSeeded(*cfg.RandomSeed)
	}
	return random.NewCrypto()
}

// buildEmailSender assembles the transports every offer mail goes through.
func buildEmailSender(ctx context.Context, cfg *config.Config, redisClient *redis.Client) email.Sender {
	var primaryEmailSender email.Sender
	if cfg.MockServices && redisClient != nil {
		log.Println("MOCK_SERVICES enabled: Using Redis email sender.")
		primaryEmailSender = email.NewRedisSender(redisClient, cfg)
	} else {
		log.Println("MOCK_SERVICES disabled or not set: Using SMTP/Logging email sender.")
		primaryEmailSender = email.NewSMTPSender(cfg)
	}

	compositeSender := email.NewCompositeEmailSender(primaryEmailSender)

	if cfg.LogEmailsPath != "" {
		log.Printf("LOG_EMAILS set to '%s', enabling file email logger.", cfg.LogEmailsPath)
		fileSender, err := email.NewFileEmailSender(cfg.LogEmailsPath)
		if err != nil {
			log.Printf("WARNING: Failed to initialize file email sender (LOG_EMAILS='%s'): %v. Proceeding without file logging.", cfg.LogEmailsPath, err)
		} else {
			compositeSender.AddSender(fileSender)
		}
	}

	if cfg.ArchiveEnabled() {
		objects, err := storage.NewS3Storage(ctx, cfg)
		if err != nil {
			log.Printf("WARNING: Failed to initialize S3 offer archive (bucket '%s'): %v. Proceeding without archive.", cfg.OfferArchiveBucket, err)
		} else {
			compositeSender.AddSender(email.NewArchiveSender(objects))
			log.Printf("Offer mails are archived to s3://%s.", cfg.OfferArchiveBucket)
		}
	}

	return compositeSender
}

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// Initialize persistence
	st, err := openStore(rootCtx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			log.Printf("Error closing store: %v", err)
		}
	}()

	if cfg.SeedData {
		if err := store.Seed(rootCtx, st); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
	}

	// Initialize Cache (Redis)
	redisClient, err := cache.Connect(rootCtx, cfg)
	if err != nil {
		if needsRedis(cfg) {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		log.Printf("Warning: Redis unavailable (%v). Settings changes are not propagated to other instances.", err)
		redisClient = nil
	} else {
		defer func() {
			if err := cache.Close(redisClient); err != nil {
				log.Printf("Error disconnecting from Redis: %v", err)
			}
		}()
	}

	// Initialize Services
	settingsSvc := services.NewSettingsService(rootCtx, st, redisClient)
	emailTemplateService := services.NewEmailTemplateService(st)

	llm, err := email.NewOpenAIModel(cfg)
	if err != nil {
		log.Printf("Warning: Failed to initialize OpenAI client: %v. Offer mails use the plain format.", err)
	}
	composer := email.NewOfferComposer(llm, emailTemplateService)
	mailer := tasks.NewOfferMailer(st, composer, buildEmailSender(rootCtx, cfg, redisClient), cfg.SmtpFromAddress)

	var taskClient *asynq.Client
	if redisClient != nil {
		taskClient = tasks.NewClient(redisClient)
		defer taskClient.Close()
	}

	var notifier services.IOfferNotifier
	if cfg.NotifyMode == config.NotifyQueue {
		notifier = tasks.NewQueueNotifier(taskClient)
	} else {
		notifier = tasks.NewInlineNotifier(mailer)
	}

	apiServices := api.Services{
		Inquiry:   services.NewInquiryService(newRandomProvider(cfg), st, settingsSvc, notifier),
		Order:     services.NewOrderService(st),
		Supplier:  services.NewSupplierService(st),
		Settings:  settingsSvc,
		Templates: emailTemplateService,
	}

	// Initialize Task Processor
	taskProcessor := tasks.NewTaskProcessor(st, mailer)

	// WaitGroup for managing goroutines
	var wg sync.WaitGroup

	// Channel to signal shutdown from Service API
	shutdownChan := make(chan struct{}, 1)

	// Start Service API (always runs)
	serviceRouter := api.SetupServiceRouter(cfg, redisClient, shutdownChan)
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: serviceRouter,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		fmt.Printf("Service API listening on :%s\n", cfg.ServiceApiPort)
		if err := serviceSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Service API ListenAndServe error: %v", err)
		}
		fmt.Println("Service API server stopped.")
	}()

	// --- Mode-specific servers ---
	var mainApiSrv *http.Server
	var backgroundTaskSrv *asynq.Server

	fmt.Printf("Starting application in '%s' mode...\n", cfg.RunMode)

	apiMode := func() {
		fmt.Println("Starting main API server...")
		mainApiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: api.SetupRouter(rootCtx, cfg, apiServices),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			fmt.Printf("Main API listening on :%s\n", cfg.ApiPort)
			if err := mainApiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Main API ListenAndServe error: %v", err)
			}
			fmt.Println("Main API server stopped.")
		}()
	}

	bgMode := func() {
		fmt.Println("Starting background worker...")
		srv, mux := tasks.SetupServer(redisClient, taskProcessor)
		backgroundTaskSrv = srv
		wg.Add(1)
		go func() {
			defer wg.Done()
			fmt.Println("Background task server starting...")
			if err := backgroundTaskSrv.Run(mux); err != nil {
				log.Fatalf("Background task server error: %v", err)
			}
			fmt.Println("Background task server stopped.")
		}()
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		log.Fatalf("Invalid run mode specified in config: %s.", cfg.RunMode)
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		fmt.Printf("\nReceived signal: %s. Shutting down gracefully...\n", sig)
	case <-shutdownChan:
		fmt.Println("\nShutdown requested via Service API. Shutting down gracefully...")
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	fmt.Println("Shutting down Service API server...")
	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		log.Printf("Service API server shutdown error: %v", err)
	}

	if mainApiSrv != nil {
		fmt.Println("Shutting down Main API server...")
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			log.Printf("Main API server shutdown error: %v", err)
		}
	}

	if backgroundTaskSrv != nil {
		fmt.Println("Shutting down Background Task server...")
		backgroundTaskSrv.Shutdown()
	}

	// Stops the settings listener and the rate limiter sweeper.
	cancelRoot()

	fmt.Println("Waiting for servers to stop...")
	wg.Wait()

	fmt.Println("Server gracefully stopped")
}
