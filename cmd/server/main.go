package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-service/internal/config"
	httpapi "storefront-service/internal/controllers/http"
	"storefront-service/internal/infra"
	"storefront-service/internal/infra/cache"
	"storefront-service/internal/infra/kafka"
	"storefront-service/internal/infra/logger"
	mysqldb "storefront-service/internal/infra/mysql"
	"storefront-service/internal/infra/rabbitmq"
	"storefront-service/internal/repository"
	"storefront-service/internal/repository/memory"
	mysqlrepo "storefront-service/internal/repository/mysql"
	"storefront-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type stores struct {
	tx       repository.Transactor
	orders   repository.OrderRepository
	products repository.ProductRepository
	reviews  repository.ReviewRepository
}

func main() {
	bootLog := logrus.New()
	cfg, err := config.Load(bootLog)
	if err != nil {
		bootLog.Fatalf("config: %v", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		bootLog.Fatalf("logger: %v", err)
	}

	st, err := openStores(cfg, log)
	if err != nil {
		log.Fatalf("store: %v", err)
	}

	publisher, err := openPublisher(cfg, log)
	if err != nil {
		log.Fatalf("failed to init publisher: %v", err)
	}

	orders := services.NewOrderService(st.tx, st.orders, st.products, publisher, log)
	reviews := services.NewReviewService(st.tx, st.reviews, st.products, publisher, log)
	products := services.NewProductService(st.products, log)
	analytics := services.NewAnalyticsService(st.tx, st.orders, st.products, log)
	orders.SetCacheInvalidator(analytics)
	products.SetCacheInvalidator(analytics)

	var redisCache *cache.RedisCache
	if cfg.RedisAddr != "" {
		redisCache = cache.NewRedisCache(cache.NewRedisClient(cfg.RedisAddr))
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			log.Warnf("Redis at %s not reachable yet, analytics will read through: %v", cfg.RedisAddr, err)
		}
		cancel()
		analytics.SetCache(redisCache, cfg.AnalyticsCacheTTL)
	}

	gin.SetMode(gin.ReleaseMode)
	handler := httpapi.NewHandler(orders, reviews, products, analytics, log)
	router := httpapi.NewRouter(handler, log, cfg.JWTSecret)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("Starting storefront service on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server run: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}

	orders.Wait()
	reviews.Wait()
	if err := publisher.Close(); err != nil {
		log.Errorf("publisher close: %v", err)
	}
	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			log.Errorf("redis close: %v", err)
		}
	}
}

func openStores(cfg *config.Config, log *logrus.Logger) (stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn("Using in-memory store; data is lost on restart")
		s := memory.NewStore()
		return stores{tx: s, orders: s.Orders(), products: s.Products(), reviews: s.Reviews()}, nil
	}

	db, err := mysqldb.Open(mysqldb.Options{
		DSN:          cfg.MySQLDSN(),
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	}, log)
	if err != nil {
		return stores{}, err
	}
	return stores{
		tx:       mysqlrepo.NewTransactor(db),
		orders:   mysqlrepo.NewOrderRepository(db, log),
		products: mysqlrepo.NewProductRepository(db, log),
		reviews:  mysqlrepo.NewReviewRepository(db, log),
	}, nil
}

func openPublisher(cfg *config.Config, log *logrus.Logger) (infra.EventPublisher, error) {
	switch cfg.EventBroker {
	case config.BrokerRabbitMQ:
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, log)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.BrokerKafka:
		return kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log), nil
	default:
		log.Info("Event publishing disabled")
		return infra.NoopPublisher{}, nil
	}
}
