package di

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	domrepo "FinTrack/internal/domain/repository"
	domsvc "FinTrack/internal/domain/service"
	"FinTrack/internal/handler/api"
	internalrepo "FinTrack/internal/repository"
	"FinTrack/internal/service/feed"
	"FinTrack/internal/service/ratelimit"
	"FinTrack/internal/usecase"
	pkgamqp "FinTrack/pkg/amqp"
	"FinTrack/pkg/cache"
	pkgch "FinTrack/pkg/clickhouse"
	"FinTrack/pkg/config"
	xhttp "FinTrack/pkg/http"
	pkgkafka "FinTrack/pkg/kafka"
	applogger "FinTrack/pkg/logger"
	"FinTrack/pkg/metrics"
	"FinTrack/pkg/server"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const openTimeout = 10 * time.Second

// ProvideRegistry creates the Prometheus registry shared by every component.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates the summary metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) domrepo.Metrics {
	return metrics.New(reg)
}

// ProvideClock returns the wall clock in the configured timezone.
func ProvideClock(cfg *config.Config) (domsvc.Clock, error) {
	clock, err := domsvc.NewSystemClock(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("clock: %w", err)
	}
	return clock, nil
}

// ProvideKafkaProducer creates a Kafka producer when events go to Kafka.
// It returns nil otherwise.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
	if cfg.Events.Type != "kafka" {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithProducerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideAMQPPublisher dials RabbitMQ when events go to AMQP. It returns nil otherwise.
func ProvideAMQPPublisher(cfg *config.Config) (*pkgamqp.Publisher, error) {
	if cfg.Events.Type != "amqp" {
		return nil, nil
	}
	pub, err := pkgamqp.Dial(cfg.Events.AMQP.URL, cfg.Events.AMQP.Exchange)
	if err != nil {
		return nil, fmt.Errorf("amqp publisher: %w", err)
	}
	return pub, nil
}

// ProvideLogger builds the application logger. With the collector enabled,
// deduplicated error logs are shipped through the configured broker.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer, amqpPub *pkgamqp.Publisher) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	if cfg.Log.Collector.Enabled {
		var pub applogger.Publisher
		switch {
		case producer != nil:
			pub = producer
		case amqpPub != nil:
			pub = amqpPub
		}
		if pub != nil {
			l.AddCollector(&applogger.CollectionConfig{
				TimeInterval:   cfg.Log.Collector.Interval,
				CountThreshold: cfg.Log.Collector.CountThreshold,
				Topic:          cfg.Log.Collector.Topic,
				Publisher:      pub,
			})
		}
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// chStore closes the ClickHouse client together with the store.
type chStore struct {
	*internalrepo.CHTransactionStore
	client *pkgch.Client
}

func (s chStore) Close() error { return s.client.Close() }

// ProvideTransactionStore opens the store selected by store.type.
func ProvideTransactionStore(cfg *config.Config, l *applogger.Logger) (domrepo.TransactionStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	switch cfg.Store.Type {
	case "json":
		store, err := internalrepo.NewJSONStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("json store: %w", err)
		}
		return store, nil
	case "sqlite":
		store, err := internalrepo.OpenSQLite(ctx, sqlitePath(cfg.Store.Path))
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		return store, nil
	case "postgres":
		store, err := internalrepo.OpenPostgres(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}
		return store, nil
	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		store, err := internalrepo.NewCHTransactionStore(ctx, client, l)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse store: %w", err)
		}
		return chStore{CHTransactionStore: store, client: client}, nil
	default:
		return internalrepo.NewMemoryStore(), nil
	}
}

// sqlitePath keeps the default JSON path usable for sqlite by swapping the extension.
func sqlitePath(p string) string {
	if filepath.Ext(p) == ".json" {
		return p[:len(p)-len(".json")] + ".db"
	}
	return p
}

// ProvideCache creates the summary cache selected by cache.type. It returns
// nil for "none".
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	memory := func() *cache.MemoryCache {
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize),
			cache.WithMemoryDefaultTTL(cfg.Cache.TTL),
		)
	}
	redis := func() (*cache.RedisCache, error) {
		c, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, nil
	}

	switch cfg.Cache.Type {
	case "memory":
		return memory(), nil
	case "redis":
		c, err := redis()
		if err != nil {
			return nil, err
		}
		return c, nil
	case "layered":
		l2, err := redis()
		if err != nil {
			return nil, err
		}
		return cache.NewLayeredCache(l2,
			cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
			cache.WithLayeredMemoryTTL(cfg.Cache.TTL),
		), nil
	default:
		return nil, nil
	}
}

// ProvideFeedHub creates the websocket hub, or nil when the feed is disabled.
func ProvideFeedHub(cfg *config.Config, l *applogger.Logger) *feed.Hub {
	if !cfg.Feed.Enabled {
		return nil
	}
	return feed.NewHub(
		feed.WithLogger(l.With(applogger.String("component", "feed"))),
		feed.WithPingInterval(cfg.Feed.PingInterval),
		feed.WithSendBuffer(cfg.Feed.SendBuffer),
		feed.WithAllowedOrigins(cfg.Server.AllowedOrigins),
	)
}

// ProvideEventPublisher fans transaction events out to the broker and the feed hub.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer, amqpPub *pkgamqp.Publisher, hub *feed.Hub) domrepo.EventPublisher {
	var pubs []domrepo.EventPublisher
	if producer != nil {
		pubs = append(pubs, internalrepo.NewKafkaEventPublisher(producer, cfg.Events.Topic))
	}
	if amqpPub != nil {
		pubs = append(pubs, internalrepo.NewAMQPEventPublisher(amqpPub))
	}
	if hub != nil {
		pubs = append(pubs, hub)
	}
	if len(pubs) == 0 {
		return internalrepo.NoopPublisher{}
	}
	return internalrepo.NewFanoutPublisher(pubs...)
}

// ProvideSummaryUseCase creates the summary use case.
func ProvideSummaryUseCase(
	cfg *config.Config,
	store domrepo.TransactionStore,
	clock domsvc.Clock,
	c cache.Service,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.SummaryUseCase {
	opts := []usecase.SummaryOption{
		usecase.WithSummaryMetrics(m),
		usecase.WithSummaryLogger(l.With(applogger.String("component", "summary"))),
	}
	if c != nil {
		opts = append(opts, usecase.WithSummaryCache(c, cfg.Cache.TTL))
	}
	return usecase.NewSummaryUseCase(store, clock, opts...)
}

// ProvideTransactionsUseCase creates the transactions use case.
func ProvideTransactionsUseCase(
	store domrepo.TransactionStore,
	pub domrepo.EventPublisher,
	summaries *usecase.SummaryUseCase,
	clock domsvc.Clock,
	l *applogger.Logger,
) *usecase.TransactionsUseCase {
	return usecase.NewTransactionsUseCase(store, pub, summaries, clock, l.With(applogger.String("component", "transactions")))
}

// ProvideIngestConsumer creates the Kafka consumer for the ingest topic, or
// nil when ingest is disabled.
func ProvideIngestConsumer(
	cfg *config.Config,
	txs *usecase.TransactionsUseCase,
	clock domsvc.Clock,
	m domrepo.Metrics,
	l *applogger.Logger,
	reg *prometheus.Registry,
) (*pkgkafka.Consumer, error) {
	if !cfg.Ingest.Enabled {
		return nil, nil
	}
	handler := usecase.NewKafkaTransactionsHandler(cfg.Ingest.Topic, txs, clock.Now().Location(), m)
	consumer, err := pkgkafka.NewConsumer(handler,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l.With(applogger.String("component", "ingest"))),
		pkgkafka.WithConsumerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRouter mounts the API handlers under /api.
func ProvideRouter(
	cfg *config.Config,
	l *applogger.Logger,
	clock domsvc.Clock,
	summaries *usecase.SummaryUseCase,
	txs *usecase.TransactionsUseCase,
	hub *feed.Hub,
) *api.Router {
	handlers := []api.GroupHandler{
		api.NewSummaryEchoHandler(l, summaries, clock),
		api.NewTransactionsEchoHandler(l, txs, clock),
	}
	if hub != nil {
		handlers = append(handlers, api.NewFeedHandler(l, hub))
	}

	var mw []echo.MiddlewareFunc
	if cfg.RateLimit.Enabled {
		mw = append(mw, ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Middleware())
	}
	return api.NewRouter(handlers, mw...)
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	router *api.Router,
	store domrepo.TransactionStore,
	reg *prometheus.Registry,
) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithAllowOrigins(cfg.Server.AllowedOrigins),
		xhttp.WithHealthCheck(store.Health),
		xhttp.WithLogger(l.With(applogger.String("component", "http"))),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, reg, reg))
	} else {
		opts = append(opts, xhttp.WithMetrics("", nil, nil))
	}
	return xhttp.NewServer([]xhttp.Handler{router}, opts...)
}

// ProvideApp assembles the runnable components. Closers run in reverse order,
// so the store closes last.
func ProvideApp(
	l *applogger.Logger,
	srv *xhttp.Server,
	hub *feed.Hub,
	consumer *pkgkafka.Consumer,
	store domrepo.TransactionStore,
	pub domrepo.EventPublisher,
	c cache.Service,
) *server.App {
	app := server.New(l).
		OnClose("store", store).
		Add("http", srv)
	if c != nil {
		app.OnClose("cache", c)
	}
	app.OnClose("events", pub)
	if hub != nil {
		app.Add("feed", hub)
	}
	if consumer != nil {
		app.Add("ingest", consumer)
	}
	return app
}
