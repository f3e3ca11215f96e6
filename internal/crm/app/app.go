// Package app assembles the CRM components from configuration. The API
// server and the seed command share it.
package app

import (
	"context"
	"fmt"

	"github.com/gartstein/minicrm/internal/crm/auth"
	"github.com/gartstein/minicrm/internal/crm/config"
	"github.com/gartstein/minicrm/internal/crm/db"
	"github.com/gartstein/minicrm/internal/crm/events"
	"github.com/gartstein/minicrm/internal/crm/notification"
	"github.com/gartstein/minicrm/internal/crm/storage"
	"github.com/gartstein/minicrm/internal/crm/upload"
	"github.com/gartstein/minicrm/internal/crm/validation"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// App holds the long-lived components of the service.
type App struct {
	Config        *config.Config
	Repo          *db.Repository
	Storage       storage.Backend
	Uploads       *upload.Service
	Validator     *validation.Validator
	Events        *events.Handlers
	Publisher     events.Publisher
	Consumer      *events.Consumer
	Hub           *notification.Hub
	Authenticator *auth.Authenticator

	logger  *zap.Logger
	closers []func()
}

// New opens every backend named by cfg. On error, whatever was opened is
// closed again.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, logger: logger}
	steps := []func() error{
		a.initDatabase,
		func() error { return a.initStorage(ctx) },
		func() error { return a.initAuth(ctx) },
		a.initEvents,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *App) initDatabase() error {
	level := gormlogger.Error
	if a.Config.IsDevelopment() {
		level = gormlogger.Warn
	}
	repo, err := db.NewRepository(&db.Config{
		Driver:   a.Config.DBDriver,
		Host:     a.Config.DBHost,
		Port:     a.Config.DBPort,
		User:     a.Config.DBUser,
		Password: a.Config.DBPassword,
		DBName:   a.Config.DBName,
		SSLMode:  a.Config.DBSSLMode,
		Path:     a.Config.DBPath,
		LogLevel: level,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.Repo = repo
	a.closers = append(a.closers, func() {
		if err := repo.Close(); err != nil {
			a.logger.Error("failed to close database", zap.Error(err))
		}
	})
	return nil
}

func (a *App) initStorage(ctx context.Context) error {
	switch a.Config.StorageDriver {
	case "minio":
		backend, err := storage.NewMinIO(ctx, storage.MinIOConfig{
			Endpoint:  a.Config.MinIOEndpoint,
			AccessKey: a.Config.MinIOAccessKey,
			SecretKey: a.Config.MinIOSecretKey,
			Bucket:    a.Config.MinIOBucket,
			UseSSL:    a.Config.MinIOUseSSL,
			PublicURL: a.Config.StoragePublicURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize MinIO storage: %w", err)
		}
		a.Storage = backend
	default:
		backend, err := storage.NewLocal(a.Config.StorageRoot, a.Config.StoragePublicURL)
		if err != nil {
			return fmt.Errorf("failed to initialize local storage: %w", err)
		}
		a.Storage = backend
	}

	a.Uploads = upload.NewService(a.Storage, a.logger, a.Config.OptimizeImages)
	a.Uploads.SetMaxBytes(a.Config.UploadMaxBytes)
	a.Validator = validation.New(a.Repo, a.Uploads.Constraints())
	return nil
}

// LocalStorageRoot returns the directory to serve under /storage, or "" when
// files are not on local disk.
func (a *App) LocalStorageRoot() string {
	if local, ok := a.Storage.(*storage.Local); ok {
		return local.Root()
	}
	return ""
}

func (a *App) initAuth(ctx context.Context) error {
	var blacklist auth.Blacklist = auth.NewMemoryBlacklist()
	if a.Config.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     a.Config.RedisAddr,
			Password: a.Config.RedisPassword,
			DB:       a.Config.RedisDB,
		})
		a.closers = append(a.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		blacklist = auth.NewRedisBlacklist(client)
	}

	tokens := auth.NewTokens(a.Config.JWTSecret, a.Config.JWTTTL, a.Config.JWTIssuer)
	a.Authenticator = auth.NewAuthenticator(tokens, blacklist, a.Repo, a.logger)
	return nil
}

func (a *App) initEvents() error {
	var mailer notification.Mailer
	switch a.Config.MailDriver {
	case "smtp":
		mailer = notification.NewSMTPMailer(notification.SMTPConfig{
			Host:     a.Config.SMTPHost,
			Port:     a.Config.SMTPPort,
			Username: a.Config.SMTPUsername,
			Password: a.Config.SMTPPassword,
			From:     a.Config.MailFrom,
			FromName: a.Config.MailFromName,
		})
	default:
		mailer = notification.NewLogMailer(a.logger)
	}

	renderer, err := notification.NewRenderer(a.Repo, a.Config.AppName, a.Config.AppURL)
	if err != nil {
		return fmt.Errorf("failed to load mail templates: %w", err)
	}

	a.Hub = notification.NewHub(a.Config.CORSAllowedOrigins, a.logger)
	dispatcher := notification.NewDispatcher(a.Repo, a.Config.NotifyRetryAttempts, a.logger,
		notification.NewMailChannel(mailer, renderer),
		notification.NewDatabaseChannel(a.Repo, a.Hub),
	)
	a.Events = events.NewHandlers(a.logger)
	dispatcher.Register(a.Events)

	switch a.Config.EventsDriver {
	case "kafka":
		producer, err := events.NewProducer(a.Config.KafkaBrokers, a.Config.KafkaTopic, a.Config.EventQueueSize, a.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize Kafka producer: %w", err)
		}
		a.Publisher = producer
		a.closers = append(a.closers, producer.Close)
		a.Consumer = events.NewConsumer(a.Config.KafkaBrokers, a.Config.KafkaTopic, a.Config.KafkaGroupID, a.Events, a.logger)
		a.closers = append(a.closers, a.Consumer.Close)
	default:
		bus := events.NewBus(a.Events, a.Config.EventQueueSize, a.logger)
		a.Publisher = bus
		a.closers = append(a.closers, bus.Close)
	}
	return nil
}

// StartConsumer starts reading the Kafka topic. It is a no-op for the
// in-process bus.
func (a *App) StartConsumer(ctx context.Context) {
	if a.Consumer != nil {
		a.Consumer.Start(ctx)
	}
}

// Close releases everything New opened, most recent first. Queued events are
// delivered before the database closes.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
