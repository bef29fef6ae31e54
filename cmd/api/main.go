package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"portfoliochat/internal/adapter/api"
	"portfoliochat/internal/adapter/api/handler"
	apimiddleware "portfoliochat/internal/adapter/api/middleware"
	"portfoliochat/internal/adapter/api/router"
	"portfoliochat/internal/adapter/repository"
	domainrepo "portfoliochat/internal/domain/repository"
	"portfoliochat/internal/infrastructure/firebase"
	"portfoliochat/internal/infrastructure/ratelimit"
	"portfoliochat/internal/infrastructure/storage"
	"portfoliochat/internal/infrastructure/websocket"
	"portfoliochat/internal/usecase"
	"portfoliochat/pkg/config"
	"portfoliochat/pkg/logger"
	"portfoliochat/pkg/metrics"
)

type stores struct {
	records      domainrepo.RecordStore
	admins       domainrepo.AdminRepository
	quickReplies domainrepo.QuickReplyRepository
	authClient   usecase.FirebaseAuthClient
	notifier     usecase.AdminNotifier
	attachments  usecase.AttachmentStorage
	closers      []func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Setup(cfg.Environment, cfg.LogFile)
	defer logger.Close()
	metrics.Setup(cfg.MetricsNamespace, "api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open chat store: %v", err)
	}
	defer func() {
		for _, closeFn := range s.closers {
			if err := closeFn(); err != nil {
				log.Printf("Error closing client: %v", err)
			}
		}
	}()

	chatRepo := repository.NewChatRepository(s.records)
	visitorRepo := repository.NewVisitorRepository(s.records)

	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine(ctx)

	chatUseCase := usecase.NewChatUseCase(chatRepo, visitorRepo, s.notifier, rateLimiter, cfg.WelcomeMessage)
	presenceUseCase := usecase.NewPresenceUseCase(chatRepo)
	roomListUseCase := usecase.NewRoomListUseCase(chatRepo)
	attachmentUseCase := usecase.NewAttachmentUseCase(s.attachments, chatRepo)
	quickReplyUseCase := usecase.NewQuickReplyUseCase(s.quickReplies)
	adminUseCase := usecase.NewAdminUseCase(s.admins, visitorRepo)

	wsManager := websocket.NewManager(handler.NewLiveChatService(chatUseCase, presenceUseCase, roomListUseCase), rateLimiter)
	wsManager.Start(ctx)

	authMiddleware := apimiddleware.NewAuthMiddleware(s.authClient, cfg.AdminUIDs)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.AllowedOrigins}))
	} else {
		e.Use(middleware.CORS())
	}

	e.Validator = api.NewValidator()

	router.Setup(e, router.Handlers{
		Chat:       handler.NewChatHandler(chatUseCase, presenceUseCase, attachmentUseCase),
		Admin:      handler.NewAdminHandler(chatUseCase, presenceUseCase, roomListUseCase, attachmentUseCase, quickReplyUseCase, adminUseCase),
		QuickReply: handler.NewQuickReplyHandler(quickReplyUseCase),
		WebSocket:  handler.NewWebSocketHandler(wsManager, authMiddleware, cfg.AllowedOrigins),
		Health:     handler.NewHealthHandler(chatUseCase, wsManager),
	}, router.Middlewares{
		Auth:    authMiddleware,
		Admin:   apimiddleware.NewAdminMiddleware(),
		Visitor: apimiddleware.NewVisitorMiddleware(chatUseCase),
	}, rateLimiter)

	go func() {
		log.Printf("Starting server on port %s (store: %s)...", cfg.ServerPort, cfg.ChatStore)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}

// openStores picks the record store and the Firebase services. The memory
// store still uses Firebase Auth for admins when credentials are present.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	s := &stores{}

	opt, err := firebase.ClientOption(cfg)
	if err != nil {
		if cfg.ChatStore != config.StoreMemory {
			return nil, err
		}
		log.Printf("Firebase disabled: %v. Admin routes will reject every token", err)
		s.records = repository.NewMemoryRecordStore()
		s.admins = repository.NewMemoryAdminRepository()
		s.quickReplies = repository.NewMemoryQuickReplyRepository()
		return s, nil
	}

	app, err := firebase.NewApp(ctx, cfg, opt)
	if err != nil {
		return nil, err
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	s.authClient = firebase.NewFirebaseAuthClient(authClient)

	if cfg.ChatStore == config.StoreMemory {
		log.Printf("Using in-memory chat store")
		s.records = repository.NewMemoryRecordStore()
		s.admins = repository.NewMemoryAdminRepository()
		s.quickReplies = repository.NewMemoryQuickReplyRepository()
		return s, nil
	}

	dbClient, err := app.Database(ctx)
	if err != nil {
		return nil, err
	}
	s.records = repository.NewRTDBRecordStore(dbClient, cfg.PollInterval)

	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, firestoreClient.Close)
	s.admins = repository.NewFirestoreAdminRepository(firestoreClient)
	s.quickReplies = repository.NewFirestoreQuickReplyRepository(firestoreClient)

	if cfg.PushNotifications {
		if err := attachNotifier(ctx, app, s); err != nil {
			log.Printf("Push notifications disabled: %v", err)
		}
	}

	if cfg.StorageBucket != "" {
		storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opt)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, storageClient.Close)
		s.attachments = storageClient
	} else {
		log.Printf("STORAGE_BUCKET not set, attachments are disabled")
	}

	return s, nil
}

func attachNotifier(ctx context.Context, app *fbapp.App, s *stores) error {
	client, err := app.Messaging(ctx)
	if err != nil {
		return err
	}
	s.notifier = firebase.NewMessagingNotifier(client, s.admins)
	return nil
}
