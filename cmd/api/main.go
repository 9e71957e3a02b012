package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"supporthub/internal/adapter/api"
	"supporthub/internal/adapter/api/handler"
	apimiddleware "supporthub/internal/adapter/api/middleware"
	"supporthub/internal/adapter/api/router"
	"supporthub/internal/adapter/repository"
	"supporthub/internal/infrastructure/cache"
	"supporthub/internal/infrastructure/firebase"
	"supporthub/internal/infrastructure/realtime"
	"supporthub/internal/infrastructure/storage"
	"supporthub/internal/infrastructure/whatsapp"
	"supporthub/internal/usecase"
	"supporthub/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption
	serviceAccountPath := ""

	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		serviceAccountPath = os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if serviceAccountPath == "" {
			serviceAccountPath = "./service-account.json"
		}

		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}

		log.Printf("Using Firebase service account from file: %s", serviceAccountPath)
		opt = option.WithCredentialsFile(serviceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, cfg.FirebaseProject, serviceAccountPath)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	idempotencyStore, err := cache.NewIdempotencyStore(cfg.RedisURL, 24*time.Hour)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer idempotencyStore.Close()

	conversationRepo := repository.NewFirestoreConversationRepository(firestoreClient)
	messageRepo := repository.NewFirestoreMessageRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)

	rtManager := realtime.NewManager()
	rtManager.Start(ctx)

	providerClient := whatsapp.NewClient(
		cfg.WhatsAppBaseURL,
		cfg.WhatsAppAccessToken,
		cfg.WhatsAppPhoneNumberID,
		time.Duration(cfg.ProviderTimeoutSec)*time.Second,
	)

	conversationUseCase := usecase.NewConversationUseCase(conversationRepo, rtManager)
	messageUseCase := usecase.NewMessageUseCase(conversationRepo, messageRepo, rtManager)
	whatsappUseCase := usecase.NewWhatsAppUseCase(conversationUseCase, messageUseCase, providerClient, idempotencyStore)
	attachmentUseCase := usecase.NewAttachmentUseCase(storageClient)

	e := echo.New()

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(firebaseAuthClient)
	adminMiddleware := apimiddleware.NewAdminMiddleware()

	handlers := router.Handlers{
		Conversation: handler.NewConversationHandler(conversationUseCase),
		Message:      handler.NewMessageHandler(messageUseCase, conversationUseCase, whatsappUseCase),
		Webhook:      handler.NewWebhookHandler(whatsappUseCase, cfg.WhatsAppVerifyToken),
		WebSocket:    handler.NewWebSocketHandler(rtManager, authMiddleware),
		Attachment:   handler.NewAttachmentHandler(attachmentUseCase),
		Health:       handler.NewHealthHandler(firebaseAuthClient),
	}

	router.Setup(e, handlers, authMiddleware, adminMiddleware)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
