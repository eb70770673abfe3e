package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/gin-gonic/gin"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/textweave/notifier/pkg/common"
	"github.com/textweave/notifier/pkg/metastore/db/dao"
	"github.com/textweave/notifier/pkg/metastore/db/dbcore"
	"github.com/textweave/notifier/pkg/middleware"
	"github.com/textweave/notifier/pkg/notification"
	"github.com/textweave/notifier/pkg/otel"
)

// Server wires the engine together and exposes it over HTTP: change
// ingestion feeds the instant path, the digest endpoint serves external
// schedulers, and the administration routes manage subscriptions and
// relations for the platform.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server

	registry   *notification.Registry
	store      notification.SubscriptionStore
	changes    notification.ChangeLog
	notifier   notification.Notifier
	resolver   *notification.ScopeResolver
	dispatcher *notification.Dispatcher
	runner     *notification.DigestRunner
	scheduler  *notification.DigestScheduler

	pulsarClient   pulsar.Client
	pulsarProducer pulsar.Producer
}

func New(config Config) (*Server, error) {
	s, err := newServer(config)
	if err != nil {
		return nil, err
	}

	s.httpServer = &http.Server{
		Addr:    config.ListenAddress,
		Handler: s.router,
	}
	go func() {
		log.Info("http server listening", zap.String("address", config.ListenAddress))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", zap.Error(err))
		}
	}()

	return s, nil
}

func newServer(config Config) (*Server, error) {
	if config.OtelEndpoint != "" {
		if err := otel.InitTracing(context.Background(), &otel.TracingConfig{
			Endpoint: config.OtelEndpoint,
			Service:  config.ServiceName,
		}); err != nil {
			return nil, err
		}
	}

	s := &Server{
		config:   config,
		registry: notification.NewDefaultRegistry(),
	}

	var changes notification.ChangeLog
	var watermarks notification.WatermarkStore
	switch config.StoreProvider {
	case common.StoreProviderMemory:
		store := notification.NewMemoryStore()
		s.store = store
		changes = store
		watermarks = store
	case common.StoreProviderDatabase:
		var err error
		switch {
		case config.SqlitePath != "":
			_, err = dbcore.ConnectSqlite(config.SqlitePath)
			if err == nil {
				err = dbcore.CreateTables(dbcore.GetDB(context.Background()))
			}
		default:
			_, err = dbcore.ConnectPostgres(config.DBConfig)
		}
		if err != nil {
			return nil, err
		}
		store := notification.NewDatabaseStore(dbcore.NewTxImpl(), dao.NewMetaDomain())
		s.store = store
		changes = store
		watermarks = store
	default:
		return nil, common.ErrUnknownStoreProvider
	}
	s.changes = changes

	var notifier notification.Notifier
	switch config.NotifierProvider {
	case common.NotifierProviderMemory:
		notifier = notification.NewMemoryNotifier()
	case common.NotifierProviderWebhook:
		notifier = notification.NewWebhookNotifier(config.WebhookEndpoint)
	case common.NotifierProviderPulsar:
		client, producer, err := notification.CreatePulsarProducer(config.PulsarURL, config.PulsarTopic)
		if err != nil {
			return nil, err
		}
		s.pulsarClient = client
		s.pulsarProducer = producer
		notifier = notification.NewPulsarNotifier(producer)
	default:
		return nil, common.ErrUnknownNotifierProvider
	}

	s.notifier = notifier
	s.resolver = notification.NewScopeResolver(s.store)
	filter := notification.NewRedundancyFilter(s.registry, s.resolver)
	s.dispatcher = notification.NewDispatcher(s.registry, s.resolver, filter, s.store, notifier)
	s.runner = notification.NewDigestRunner(s.registry, s.resolver, filter, s.store, changes, watermarks, notifier)

	if config.SchedulerDaily > 0 || config.SchedulerWeekly > 0 || config.SchedulerMonthly > 0 {
		s.scheduler = notification.NewDigestScheduler(s.runner, config.SchedulerDaily, config.SchedulerWeekly, config.SchedulerMonthly)
		if err := s.scheduler.Start(); err != nil {
			return nil, err
		}
	}

	gin.SetMode(gin.ReleaseMode)
	s.router = gin.New()
	s.router.Use(middleware.Recovery())
	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "notifier"})
	})

	api := s.router.Group("/api/v1")
	if s.config.JWTSecret != "" {
		api.Use(middleware.ServiceAuth(s.config.JWTSecret))
	}

	api.POST("/changes", s.handleIngestChange)
	api.POST("/digests/:frequency/run", s.handleRunDigest)

	api.POST("/subscriptions", s.handleAddSubscription)
	api.GET("/subscriptions", s.handleListSubscriptions)
	api.GET("/subscriptions/explain", s.handleExplain)
	api.DELETE("/subscriptions/:id", s.handleDeleteSubscription)

	api.POST("/users", s.handleAddUser)
	api.PUT("/users/:id/watches/:project", s.handleAddWatch)
	api.DELETE("/users/:id/watches/:project", s.handleRemoveWatch)
	api.PUT("/users/:id/admin/:project", s.handleAddAdmin)
	api.DELETE("/users/:id/admin/:project", s.handleRemoveAdmin)
	api.PUT("/users/:id/languages", s.handleSetLanguages)
}

func (s *Server) Close() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	if s.scheduler != nil {
		if err := s.scheduler.Stop(); err != nil {
			return err
		}
	}
	if s.pulsarProducer != nil {
		s.pulsarProducer.Close()
	}
	if s.pulsarClient != nil {
		s.pulsarClient.Close()
	}
	return nil
}
