package app

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/tom2tomtomtom/traffic-manager/config"
	"github.com/tom2tomtomtom/traffic-manager/internal/repositories"
	assignmentsvc "github.com/tom2tomtomtom/traffic-manager/internal/services/assignment"
	capacitysvc "github.com/tom2tomtomtom/traffic-manager/internal/services/capacity"
	projectsvc "github.com/tom2tomtomtom/traffic-manager/internal/services/project"
	transcriptsvc "github.com/tom2tomtomtom/traffic-manager/internal/services/transcript"
	"github.com/tom2tomtomtom/traffic-manager/pkg/database"
	"github.com/tom2tomtomtom/traffic-manager/pkg/events"
	"github.com/tom2tomtomtom/traffic-manager/pkg/extraction"
	"github.com/tom2tomtomtom/traffic-manager/pkg/health"
	"github.com/tom2tomtomtom/traffic-manager/pkg/kafka"
	"github.com/tom2tomtomtom/traffic-manager/pkg/redis"
	"github.com/tom2tomtomtom/traffic-manager/pkg/startup"
	"github.com/tom2tomtomtom/traffic-manager/pkg/tracing"
	"github.com/tom2tomtomtom/traffic-manager/pkg/tracing/exporters"
)

// NewLogger builds the zap backed logger. PrettyLogs switches to zap's development encoder.
func NewLogger(cfg config.Config) (ectologger.Logger, func(), error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	zapConfig := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = level

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, nil, err
	}
	zapLogger = zapLogger.With(zap.String("service", cfg.AppName), zap.String("version", cfg.Version))

	return zapadapter.NewZapEctoLogger(zapLogger, nil), func() { _ = zapLogger.Sync() }, nil
}

// Repositories groups the postgres stores.
type Repositories struct {
	People      *repositories.PersonRepository
	Projects    *repositories.ProjectRepository
	Assignments *repositories.AssignmentRepository
	Snapshots   *repositories.SnapshotRepository
	Transcripts *repositories.TranscriptRepository
}

// App owns the external dependencies and the services built on them.
type App struct {
	config  config.Config
	logger  ectologger.Logger
	startup *startup.Startup

	tracer   *sdktrace.TracerProvider
	db       database.DB
	redis    *redis.Client
	producer *kafka.Producer
	health   *health.Checker

	Repositories Repositories
	Capacity     *capacitysvc.Service
	Assignments  *assignmentsvc.Service
	Projects     *projectsvc.Service
	Transcripts  *transcriptsvc.Service
}

func New(cfg config.Config, logger ectologger.Logger) *App {
	a := &App{
		config:  cfg,
		logger:  logger,
		startup: startup.New(logger, cfg.StartupMaxAttempts),
		health:  health.NewChecker(cfg.Version),
	}

	a.startup.Add(startup.Func{
		Name:      "tracing",
		StartFunc: a.startTracing,
		StopFunc: func(ctx context.Context) error {
			return a.tracer.Shutdown(ctx)
		},
	})
	a.startup.Add(startup.Func{
		Name:      "database",
		StartFunc: a.startDatabase,
		StopFunc: func(context.Context) error {
			return a.db.Close()
		},
	})
	a.startup.Add(startup.Func{
		Name:      "migrations",
		Requires:  []string{"database"},
		StartFunc: a.migrate,
	})
	if cfg.RedisEnabled {
		a.startup.Add(startup.Func{
			Name:      "redis",
			StartFunc: a.startRedis,
			StopFunc: func(context.Context) error {
				return a.redis.Close()
			},
		})
	}
	if cfg.KafkaEnabled {
		a.startup.Add(startup.Func{
			Name:      "kafka",
			StartFunc: a.startKafka,
			StopFunc: func(context.Context) error {
				return a.producer.Close()
			},
		})
	}

	return a
}

// Start brings every dependency up, applies migrations and builds the services.
func (a *App) Start(ctx context.Context) error {
	if err := a.startup.Start(ctx); err != nil {
		return err
	}
	a.wire()
	return nil
}

// Stop releases dependencies in reverse start order.
func (a *App) Stop(ctx context.Context) error {
	a.health.SetReady(false)
	return a.startup.Stop(ctx)
}

func (a *App) startTracing(ctx context.Context) error {
	provider, err := tracing.NewProvider(ctx, tracing.ProviderConfig{
		ServiceName: a.config.AppName,
		Enabled:     a.config.OTLPEnabled,
		OTLP: exporters.OTLPConfig{
			Endpoint: a.config.OTLPEndpoint,
			Protocol: a.config.OTLPProtocol,
			Insecure: a.config.OTLPInsecure,
		},
	})
	if err != nil {
		return err
	}
	a.tracer = provider
	return nil
}

func (a *App) startDatabase(ctx context.Context) error {
	db, err := database.Connect(ctx, database.Config{
		Driver:          a.config.DatabaseDriver,
		Host:            a.config.DatabaseHost,
		Port:            a.config.DatabasePort,
		User:            a.config.DatabaseUserName,
		Password:        a.config.DatabasePassword,
		Name:            a.config.DatabaseName,
		SSLMode:         a.config.DatabaseSSLMode,
		MaxOpenConns:    a.config.DatabaseMaxOpenConns,
		MaxIdleConns:    a.config.DatabaseMaxIdleConns,
		ConnMaxLifetime: a.config.DatabaseConnMaxLifetime,
	}, a.logger)
	if err != nil {
		return err
	}
	a.db = db
	a.health.AddCheck("database", health.PingFunc(db.PingContext), true)
	return nil
}

func (a *App) migrate(context.Context) error {
	migrations := database.NewMigrationService(a.logger, database.MigrationConfig{
		FolderPath:   a.config.DatabaseMigrationFolderPath,
		Version:      a.config.DatabaseMigrationVersion,
		Force:        a.config.DatabaseMigrationForce,
		AutoRollback: a.config.DatabaseMigrationAutoRollback,
	})
	return migrations.Migrate(a.db, a.config.DatabaseName)
}

func (a *App) startRedis(ctx context.Context) error {
	client, err := redis.NewClient(ctx, redis.Config{
		Host:     a.config.RedisHost,
		Port:     a.config.RedisPort,
		Password: a.config.RedisPassword,
		DB:       a.config.RedisDB,
	}, a.logger)
	if err != nil {
		return err
	}
	a.redis = client
	a.health.AddCheck("redis", client, false)
	return nil
}

func (a *App) startKafka(context.Context) error {
	producerConfig := kafka.DefaultProducerConfig()
	producerConfig.Brokers = a.config.KafkaBrokers
	producerConfig.BatchSize = a.config.KafkaBatchSize
	producerConfig.BatchTimeout = a.config.KafkaBatchTimeout
	producerConfig.RequiredAcks = a.config.KafkaRequiredAcks
	producerConfig.Compression = a.config.KafkaCompression

	producer, err := kafka.NewProducer(producerConfig, a.logger)
	if err != nil {
		return err
	}
	a.producer = producer
	return nil
}

func (a *App) wire() {
	a.Repositories = Repositories{
		People:      repositories.NewPersonRepository(a.db, a.logger),
		Projects:    repositories.NewProjectRepository(a.db, a.logger),
		Assignments: repositories.NewAssignmentRepository(a.db, a.logger),
		Snapshots:   repositories.NewSnapshotRepository(a.db, a.logger),
		Transcripts: repositories.NewTranscriptRepository(a.db, a.logger),
	}

	var publisher events.Publisher
	if a.producer != nil {
		publisher = a.producer
	}
	var locker capacitysvc.Locker
	if a.redis != nil {
		locker = redis.NewLocker(a.redis, a.config.AppName)
	}

	a.Capacity = capacitysvc.NewService(a.logger, capacitysvc.Stores{
		People:      a.Repositories.People,
		Assignments: a.Repositories.Assignments,
		Snapshots:   a.Repositories.Snapshots,
	}, events.NewEmitter(publisher, a.logger), locker, capacitysvc.Config{
		FleetWorkers:       a.config.FleetWorkers,
		ForecastMaxWeeks:   a.config.ForecastMaxWeeks,
		RecalculateLockTTL: a.config.RecalculateLockTTL,
	})

	a.Assignments = assignmentsvc.NewService(a.logger, a.Repositories.Assignments, a.Repositories.People,
		a.Repositories.Projects, a.Capacity)

	extractor := extraction.NewAnthropicExtractor(extraction.Config{
		APIKey:    a.config.AnthropicAPIKey,
		BaseURL:   a.config.AnthropicBaseURL,
		Model:     a.config.AnthropicModel,
		MaxTokens: a.config.AnthropicMaxTokens,
		Timeout:   a.config.AnthropicTimeout,
	}, a.logger)
	if a.config.AnthropicAPIKey == "" {
		a.logger.Warn("ANTHROPIC_API_KEY is not set, transcript processing and recommendations will fail")
	}

	a.Projects = projectsvc.NewService(a.logger, a.Repositories.Projects, a.Repositories.Assignments,
		a.Repositories.People, a.Capacity, extractor)

	a.Transcripts = transcriptsvc.NewService(a.logger, a.Repositories.Transcripts, a.Repositories.People,
		a.Repositories.Projects, extractor)
}
