package config

import (
	"context"
	"sync"

	"go-checkout/internal/common/enum"
	database "go-checkout/internal/pkg/db"
	midtransPkg "go-checkout/internal/pkg/midtrans"
	"go-checkout/internal/pkg/rabbitmq"
	"go-checkout/internal/pkg/redis"
	s3aws "go-checkout/internal/pkg/storage/s3"
)

// Config holds all application configuration loaded from environment variables
type Config struct {
	AppEnv             enum.EnvEnum `env:"APP_ENV" envDefault:"development"`
	AppPort            int          `env:"APP_PORT" envDefault:"8080"`
	AppBaseURL         string       `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	DefaultCountryCode string       `env:"DEFAULT_COUNTRY_CODE" envDefault:"1"`
	FlowCallTimeoutSec int          `env:"FLOW_CALL_TIMEOUT_SECONDS" envDefault:"10"`
	RedisHost          string       `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort          int          `env:"REDIS_PORT" envDefault:"6379"`
	RedisUser          string       `env:"REDIS_USER" envDefault:"default"`
	RedisPass          string       `env:"REDIS_PASS" envDefault:""`
	RedisPoolSize      int          `env:"REDIS_POOL_SIZE" envDefault:"10"`
	RabbitHost         string       `env:"RABBIT_HOST" envDefault:"localhost"`
	RabbitPort         int          `env:"RABBIT_PORT" envDefault:"5672"`
	RabbitUser         string       `env:"RABBIT_USER" envDefault:"guest"`
	RabbitPass         string       `env:"RABBIT_PASS" envDefault:"guest"`
	DBHost             string       `env:"DB_HOST" envDefault:"localhost"`
	DBPort             int          `env:"DB_PORT" envDefault:"5432"`
	DBUser             string       `env:"DB_USER" envDefault:"postgres"`
	DBPass             string       `env:"DB_PASS" envDefault:""`
	DBName             string       `env:"DB_NAME" envDefault:"postgres"`
	MidtransServerKey  string       `env:"MIDTRANS_SERVER_KEY" envDefault:""`
	MidtransClientKey  string       `env:"MIDTRANS_CLIENT_KEY" envDefault:""`
	MidtransEnv        string       `env:"MIDTRANS_ENVIRONMENT" envDefault:"sandbox"`
	AWSAccessKeyID     string       `env:"AWS_ACCESS_KEY_ID" envDefault:""`
	AWSSecretAccessKey string       `env:"AWS_SECRET_ACCESS_KEY" envDefault:""`
	AWSRegion          string       `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSBucketName      string       `env:"AWS_BUCKET_NAME" envDefault:"checkout-receipts"`
}

// SetupServerDto contains dependencies for server setup
type SetupServerDto struct {
	Ctx    *context.Context
	Cancel context.CancelFunc
	Wg     *sync.WaitGroup
	Env    *Config
	Db     *database.Database
	Rds    redis.IRedis
	Rb     *rabbitmq.ConnectionManager
	S3     s3aws.Is3
	Mt     *midtransPkg.MidtransClient
}
