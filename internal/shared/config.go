package shared

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog/log"
)

const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" env-default:"prod"`
	HTTPAddr    string `env:"HTTP_ADDR" env-default:":8080"`
	MetricsAddr string `env:"METRICS_ADDR"`
	StoreDriver string `env:"STORE_DRIVER" env-default:"mysql"`
	MySQLDSN    string `env:"MYSQL_DSN" env-default:"root:root@tcp(localhost:3306)/survey?parseTime=true&charset=utf8mb4&loc=UTC"`

	// Empty RedisAddr disables the aggregate cache.
	RedisAddr       string `env:"REDIS_ADDR"`
	RedisDB         int    `env:"REDIS_DB" env-default:"0"`
	RedisPass       string `env:"REDIS_PASSWORD"`
	CacheTTLSeconds int    `env:"CACHE_TTL_SECONDS" env-default:"300"`

	TestingEnabled bool   `env:"TESTING_ENABLED" env-default:"false"`
	TestingHeader  string `env:"TESTING_HEADER" env-default:"X-Testing-Key"`
	TestingSecret  string `env:"TESTING_SECRET"`

	AllowCommentPunctuation bool `env:"COMMENT_ALLOW_PUNCTUATION" env-default:"false"`

	// seeder
	APIBaseURL  string `env:"API_BASE_URL" env-default:"http://localhost:8080"`
	SeedCount   int    `env:"SEED_COUNT" env-default:"100"`
	SeedWorkers int    `env:"SEED_WORKERS" env-default:"4"`
	SeedRPS     int    `env:"SEED_RPS" env-default:"20"`
	SeedReset   bool   `env:"SEED_RESET" env-default:"false"`
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func Load() Config {
	var c Config
	if err := cleanenv.ReadEnv(&c); err != nil {
		log.Fatal().Err(err).Msg("config: read env failed")
	}
	if c.AppEnv == "testing" {
		c.TestingEnabled = true
	}
	if c.TestingEnabled && c.TestingSecret == "" {
		log.Warn().Msg("TESTING_SECRET is empty; testing endpoints will reject every request")
	}
	if c.StoreDriver != StoreMySQL && c.StoreDriver != StoreMemory {
		log.Warn().Str("driver", c.StoreDriver).Msg("unknown STORE_DRIVER, falling back to mysql")
		c.StoreDriver = StoreMySQL
	}
	return c
}
