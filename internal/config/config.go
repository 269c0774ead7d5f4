package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"

	BrokerRabbitMQ = "rabbitmq"
	BrokerKafka    = "kafka"
	BrokerNone     = "none"
)

type Config struct {
	Port     string `envconfig:"PORT"      default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"mysql"`

	MySQLUser     string `envconfig:"MYSQL_USER"`
	MySQLPassword string `envconfig:"MYSQL_PASSWORD"`
	MySQLHost     string `envconfig:"MYSQL_HOST" default:"127.0.0.1"`
	MySQLPort     string `envconfig:"MYSQL_PORT" default:"3306"`
	MySQLDatabase string `envconfig:"MYSQL_DATABASE"`
	MaxOpenConns  int    `envconfig:"DB_MAX_OPEN_CONNS" default:"100"`
	MaxIdleConns  int    `envconfig:"DB_MAX_IDLE_CONNS" default:"20"`

	RedisAddr         string        `envconfig:"REDIS_ADDR"`
	AnalyticsCacheTTL time.Duration `envconfig:"ANALYTICS_CACHE_TTL" default:"30s"`

	EventBroker      string   `envconfig:"EVENT_BROKER"      default:"none"`
	RabbitMQURL      string   `envconfig:"RABBITMQ_URL"`
	RabbitMQExchange string   `envconfig:"RABBITMQ_EXCHANGE" default:"storefront.exchange"`
	KafkaBrokers     []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic       string   `envconfig:"KAFKA_TOPIC"       default:"storefront.events"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
}

// Load reads an optional .env file and then the process environment.
func Load(logger *logrus.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf("Error loading .env file (but continuing): %v", err)
	} else if err == nil {
		logger.Info("Loaded configuration from .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET must not be empty")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	c.EventBroker = strings.ToLower(strings.TrimSpace(c.EventBroker))

	switch c.StoreDriver {
	case StoreMySQL:
		if c.MySQLDatabase == "" {
			return errors.New("MYSQL_DATABASE is required when STORE_DRIVER=mysql")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.EventBroker {
	case BrokerRabbitMQ:
		if c.RabbitMQURL == "" {
			return errors.New("RABBITMQ_URL is required when EVENT_BROKER=rabbitmq")
		}
	case BrokerKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when EVENT_BROKER=kafka")
		}
	case BrokerNone:
	default:
		return fmt.Errorf("unknown EVENT_BROKER %q", c.EventBroker)
	}

	if c.AnalyticsCacheTTL < 0 {
		return errors.New("ANALYTICS_CACHE_TTL must not be negative")
	}
	return nil
}

func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.MySQLUser, c.MySQLPassword, c.MySQLHost, c.MySQLPort, c.MySQLDatabase)
}
