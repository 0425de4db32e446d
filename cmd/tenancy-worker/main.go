package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tenancy-workflow/internal/common/auth"
	awsclient "tenancy-workflow/internal/common/aws"
	"tenancy-workflow/internal/common/camunda"
	"tenancy-workflow/internal/common/config"
	"tenancy-workflow/internal/common/database"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/common/observability"
	"tenancy-workflow/internal/tenancy/audit"
	"tenancy-workflow/internal/tenancy/criteria"
	"tenancy-workflow/internal/tenancy/directory"
	"tenancy-workflow/internal/tenancy/engine"
	"tenancy-workflow/internal/tenancy/notify"
	"tenancy-workflow/internal/tenancy/store"
	"tenancy-workflow/internal/tenancy/token"
	"tenancy-workflow/internal/workers"
	"tenancy-workflow/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting tenancy worker...", zap.String("environment", cfg.App.Environment))

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	location, err := time.LoadLocation(cfg.Tenancy.Timezone)
	if err != nil {
		zapLog.Fatal("invalid timezone", zap.Error(err))
	}

	// --- Zeebe ---
	zeebe, err := camunda.NewClient(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- DynamoDB ---
	dynamo, err := database.NewDynamoDB(ctx, cfg.Database.DynamoDB)
	if err != nil {
		zapLog.Fatal("dynamodb client failed", zap.Error(err))
	}
	if err := retryWithBackoff(func() error { return dynamo.Ping(ctx) }, 5, 2*time.Second, zapLog, "DynamoDB table check"); err != nil {
		zapLog.Fatal("dynamodb failed after retries", zap.Error(err))
	}
	zapLog.Info("DynamoDB connected successfully", zap.String("table", dynamo.Table))

	// --- Elasticsearch (audit mirror, optional) ---
	sinks := []audit.Sink{audit.NewPostgresStore(pg.DB)}
	if addrs := cfg.Database.Elasticsearch.GetAddresses(); len(addrs) > 0 {
		esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err == nil {
			err = esClient.Ping()
		}
		if err != nil {
			zapLog.Warn("elasticsearch unavailable, audit mirror disabled", zap.Error(err))
		} else {
			sinks = append(sinks, audit.NewElasticsearchSink(esClient.Client, cfg.Audit.ElasticsearchIndex))
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	// --- Notification channels ---
	aws := cfg.Integrations.AWS
	var sesService notify.SESService
	var snsService notify.SNSService
	if aws.SES.Enabled {
		c, err := awsclient.NewSESClient(ctx, aws.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		sesService = c
	}
	if aws.SNS.Enabled {
		c, err := awsclient.NewSNSClient(ctx, aws.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		snsService = c
	}
	dispatcher := notify.NewDispatcher(notify.Config{
		EmailEnabled: aws.SES.Enabled,
		SMSEnabled:   aws.SNS.Enabled,
		FromEmail:    aws.SES.FromEmail,
		SMSSenderID:  aws.SNS.DefaultSMSSenderID,
	}, sesService, snsService, log.WithFields(map[string]interface{}{"component": "notify"}))

	keycloak := auth.NewKeycloakClient(
		cfg.Auth.Keycloak.URL,
		cfg.Auth.Keycloak.Realm,
		cfg.Auth.Keycloak.ClientID,
		cfg.Auth.Keycloak.ClientSecret,
	)

	// --- Engine ---
	applications := store.NewPostgresStore(pg.DB)
	criteriaService := criteria.NewService(
		criteria.NewDynamoStore(dynamo.Client, dynamo.Table),
		rdb.Client,
		cfg.Tenancy.Criteria.CacheTTL,
		criteria.Defaults{
			MinExperianScore: cfg.Tenancy.Criteria.MinExperianScore,
			MaxCCJs:          cfg.Tenancy.Criteria.MaxCCJs,
		},
		log.WithFields(map[string]interface{}{"component": "criteria"}),
	)

	eng := engine.New(engine.Config{
		Location:    location,
		LinkBaseURL: cfg.Tenancy.Links.BaseURL,
	}, engine.Dependencies{
		Store: applications,
		Tokens: token.NewGateway(applications, token.TTLs{
			ViewingConfirmation: cfg.Tenancy.Tokens.ViewingConfirmationTTL,
			BackgroundInfo:      cfg.Tenancy.Tokens.BackgroundInfoTTL,
			Reference:           cfg.Tenancy.Tokens.ReferenceTTL,
		}),
		Criteria:  criteriaService,
		Notifier:  dispatcher,
		Directory: directory.New(pg.DB, keycloak),
		Audit:     audit.NewRecorder(log.WithFields(map[string]interface{}{"component": "audit"}), sinks...),
		Tracer:    obs,
		Logger:    log.WithFields(map[string]interface{}{"component": "engine"}),
	})

	// --- Workers ---
	var reg *registry.ActivityRegistry
	if path := cfg.App.RegistryPath; path != "" {
		reg, err = registry.LoadRegistry(path)
		if err != nil {
			zapLog.Fatal("activity registry load failed", zap.String("path", path), zap.Error(err))
		}
	}

	var jobWorkers []worker.JobWorker
	for _, task := range workers.Build(eng, cfg, reg, log) {
		wcfg := config.GetWorkerConfig(cfg, task.TaskType())
		jobWorkers = append(jobWorkers, camunda.Open(
			zeebe.GetClient(),
			task.WithRecorder(obs),
			wcfg.MaxJobsActive,
			config.GetDuration(wcfg.Timeout),
		))
		zapLog.Info("worker started",
			zap.String("taskType", task.TaskType()),
			zap.Int("maxJobsActive", wcfg.MaxJobsActive),
			zap.Int("timeout", wcfg.Timeout),
		)
	}
	zapLog.Info("workers registered", zap.Int("count", len(jobWorkers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{}
		status := http.StatusOK
		for name, check := range map[string]func(context.Context) error{
			"postgres": pg.Ping,
			"redis":    rdb.Ping,
			"zeebe":    zeebe.HealthCheck,
		} {
			if err := check(r.Context()); err != nil {
				checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}
		label := "ready"
		if status != http.StatusOK {
			label = "not_ready"
		}
		writeStatus(w, status, label, checks)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Server.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	for _, w := range jobWorkers {
		w.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}

	zapLog.Info("Tenancy worker stopped")
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	body := map[string]interface{}{"status": status}
	if checks != nil {
		body["checks"] = checks
	}
	_ = json.NewEncoder(w).Encode(body)
}
