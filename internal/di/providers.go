package di

import (
	"context"
	"fmt"
	"time"

	"ZPulse/internal/domain/repository"
	domsvc "ZPulse/internal/domain/service"
	"ZPulse/internal/handler/api"
	mid "ZPulse/internal/middleware"
	internalrepo "ZPulse/internal/repository"
	icache "ZPulse/internal/service/cache"
	"ZPulse/internal/service/fundamentals"
	"ZPulse/internal/service/marketdata"
	"ZPulse/internal/usecase"
	"ZPulse/internal/zscore"
	pkgcache "ZPulse/pkg/cache"
	pkgch "ZPulse/pkg/clickhouse"
	"ZPulse/pkg/config"
	pkgkafka "ZPulse/pkg/kafka"
	applogger "ZPulse/pkg/logger"
	"ZPulse/pkg/metrics"
	"ZPulse/pkg/queue"
	"ZPulse/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideEngine creates the scoring engine with the default model tables.
func ProvideEngine(l *applogger.Logger) *zscore.Engine {
	return zscore.NewEngine(zscore.DefaultTables(), l)
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.Open(pkgch.Config{
		Host:             cfg.ClickHouse.Host,
		Port:             cfg.ClickHouse.Port,
		Database:         cfg.ClickHouse.Database,
		User:             cfg.ClickHouse.User,
		Password:         cfg.ClickHouse.Password,
		UseHTTP:          cfg.ClickHouse.UseHTTP,
		AsyncInsert:      cfg.ClickHouse.AsyncInsert,
		WaitForAsync:     cfg.ClickHouse.WaitForAsync,
		DialTimeout:      cfg.ClickHouse.DialTimeout,
		ReadTimeout:      cfg.ClickHouse.ReadTimeout,
		MaxExecutionTime: cfg.ClickHouse.MaxExecutionTime,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.zscore_results (
			ticker String,
			quarter_end Date,
			model String,
			z_score Nullable(Decimal(18, 2)),
			x1 Nullable(Decimal(18, 3)),
			x2 Nullable(Decimal(18, 3)),
			x3 Nullable(Decimal(18, 3)),
			x4 Nullable(Decimal(18, 3)),
			x5 Nullable(Decimal(18, 3)),
			diagnostic String,
			valid UInt8,
			error String,
			override_context String
		) ENGINE=ReplacingMergeTree ORDER BY (ticker, quarter_end, model)`, db),
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(pkgkafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		Compression:  cfg.Kafka.Compression,
		RequiredAcks: cfg.Kafka.RequiredAcks,
		BatchSize:    cfg.Kafka.Producer.BatchSize,
		BatchBytes:   cfg.Kafka.Producer.BatchBytes,
		BatchTimeout: cfg.Kafka.Producer.Linger,
		WriteTimeout: cfg.Kafka.Producer.WriteTimeout,
		ReadTimeout:  cfg.Kafka.Producer.ReadTimeout,
		MaxAttempts:  cfg.Kafka.Producer.MaxAttempts,
		Async:        cfg.Kafka.Producer.Async,
		HashByKey:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideResultStore creates ClickHouse result storage.
func ProvideResultStore(chClient *pkgch.Client, cfg *config.Config) repository.ResultStore {
	return internalrepo.NewClickHouseResultStore(chClient.DB(), cfg.ClickHouse.Database+".zscore_results")
}

// ProvideResultPublisher creates the Kafka result publisher.
func ProvideResultPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:    cfg.Kafka.Brokers,
		GroupID:    cfg.Kafka.Consumer.GroupID,
		Workers:    cfg.Kafka.Consumer.Workers,
		BufferSize: cfg.Kafka.Consumer.BufferSize,
		RetryMax:   cfg.Kafka.Consumer.RetryMax,
		BackoffMin: cfg.Kafka.Consumer.BackoffMin,
		BackoffMax: cfg.Kafka.Consumer.BackoffMax,
		DLQTopic:   cfg.Kafka.Consumer.DLQTopic,
		MinBytes:   cfg.Kafka.Consumer.MinBytes,
		MaxBytes:   cfg.Kafka.Consumer.MaxBytes,
	}, l)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaResultsHandler registers the handler for the results topic.
func ProvideKafkaResultsHandler(store repository.ResultStore, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaResultsHandler {
	return usecase.NewKafkaResultsHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideBytesCache picks Redis when configured, a process-local cache
// otherwise. An unreachable Redis degrades to the local cache.
func ProvideBytesCache(cfg *config.Config, l *applogger.Logger) icache.BytesCache {
	if cfg.Analysis.Redis.Enabled {
		rc, err := pkgcache.Dial(pkgcache.Config{
			Addr:     cfg.Analysis.Redis.Addr,
			Password: cfg.Analysis.Redis.Password,
			DB:       cfg.Analysis.Redis.DB,
		})
		if err == nil {
			return icache.NewRedis(rc)
		}
		l.Warn("redis response cache unavailable, using in-memory cache", applogger.Error(err))
	}
	return icache.NewMemory()
}

// ProvideFundamentalsProvider creates the fundamentals REST client.
func ProvideFundamentalsProvider(cfg *config.Config, cache icache.BytesCache) domsvc.FundamentalsProvider {
	opts := []fundamentals.Option{}
	if cfg.Analysis.CacheTTL > 0 {
		opts = append(opts, fundamentals.WithCache(cache, cfg.Analysis.CacheTTL))
	}
	return fundamentals.New(cfg.Fundamentals.BaseURL, cfg.Fundamentals.APIKey, cfg.Fundamentals.Timeout, opts...)
}

// ProvideQuoteBook creates the in-memory quote book.
func ProvideQuoteBook() *marketdata.Book {
	return marketdata.NewBook(15 * time.Minute)
}

// ProvideQuoteStream creates the market data WebSocket stream.
func ProvideQuoteStream(cfg *config.Config) repository.QuoteStream {
	return marketdata.New(
		cfg.MarketData.APIKey,
		cfg.MarketData.WebSocketURL,
		cfg.MarketData.Tickers,
		cfg.MarketData.ReconnectDelay,
		cfg.MarketData.PingInterval,
	)
}

// ProvideTrendAnalyzer creates the trend analyzer use case.
func ProvideTrendAnalyzer(
	engine *zscore.Engine,
	provider domsvc.FundamentalsProvider,
	metrics repository.Metrics,
	book *marketdata.Book,
	l *applogger.Logger,
) *usecase.TrendAnalyzer {
	analyzer := usecase.NewTrendAnalyzer(engine, provider, metrics)
	analyzer.SetQuoteBook(book)
	analyzer.SetLogger(l)
	return analyzer
}

// ProvideResultProcessor creates the result processor use case.
func ProvideResultProcessor(
	pub repository.Publisher,
	store repository.ResultStore,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.ResultProcessor {
	return usecase.NewResultProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideQuoteCollector creates the quote collector use case.
func ProvideQuoteCollector(
	stream repository.QuoteStream,
	book *marketdata.Book,
	metrics repository.Metrics,
) *usecase.QuoteCollector {
	// Throttling pipeline between WebSocket and the quote book
	pipe := mid.NewQuotePipeline(book, metrics,
		mid.WithMaxRPS(10),
		mid.WithBufferSize(2000),
	)
	return usecase.NewQuoteCollector(stream, book, metrics, pipe)
}

// ProvideAnalysisQueue creates the Redis-backed async analysis queue, or nil
// when disabled in config.
func ProvideAnalysisQueue(
	cfg *config.Config,
	l *applogger.Logger,
	analyzer *usecase.TrendAnalyzer,
	proc *usecase.ResultProcessor,
) *queue.RedisQueue {
	if !cfg.Analysis.Queue.Enabled {
		return nil
	}
	rc, err := pkgcache.Dial(pkgcache.Config{
		Addr:     cfg.Analysis.Redis.Addr,
		Password: cfg.Analysis.Redis.Password,
		DB:       cfg.Analysis.Redis.DB,
	})
	if err != nil {
		l.Error("analysis queue redis unavailable", applogger.Error(err))
		return nil
	}
	job := usecase.NewAnalysisJobHandler(analyzer, proc, cfg.Analysis.Quarters)
	job.SetLocker(rc)
	return queue.NewRedisConsumer(l, &queue.QueueConfig{
		Workers:    cfg.Analysis.Queue.Workers,
		RetryLimit: cfg.Analysis.Queue.RetryLimit,
		RetryDelay: cfg.Analysis.Queue.RetryDelay,
	}, rc.Raw(), []queue.Job{job})
}

// ProvideAnalysisHandler creates the HTTP handler for the analysis API.
func ProvideAnalysisHandler(
	analyzer *usecase.TrendAnalyzer,
	proc *usecase.ResultProcessor,
	store repository.ResultStore,
	cache icache.BytesCache,
	jobQueue *queue.RedisQueue,
	l *applogger.Logger,
) *api.AnalysisHandler {
	h := api.NewAnalysisHandler(analyzer, proc, store)
	h.SetCache(cache)
	h.SetLogger(l)
	if jobQueue != nil {
		h.SetJobQueue(jobQueue)
	}
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.QuoteCollector,
	consumer *pkgkafka.Consumer,
	producer *pkgkafka.Producer,
	kh *usecase.KafkaResultsHandler,
	chClient *pkgch.Client,
	analysisQueue *queue.RedisQueue,
	handler *api.AnalysisHandler,
	proc *usecase.ResultProcessor,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.LoggingHook{Log: l})
	}
	if cfg.Logging.Collector.Enabled && producer != nil {
		l.AddCollector(applogger.CollectorConfig{
			Interval:  cfg.Logging.Collector.Interval,
			Threshold: cfg.Logging.Collector.Threshold,
			Topic:     cfg.Logging.Collector.Topic,
			Publisher: pkgkafka.TopicPublisher{Producer: producer},
		})
	}
	app := server.New(cfg, l, collector, consumer, kh, chClient, analysisQueue)
	app.SetHTTPHandler(handler)
	app.ResultProc = proc
	return app
}
