package config

import (
	"fmt"
	"log"
	"time"
	_ "time/tzdata" // зоны нужны и в контейнере без tzdata

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DBDSN         string `env:"DB_DSN,required,notEmpty"`
	TelegramToken string `env:"TELEGRAM_TOKEN"` // если пусто, бот не запускается
	HTTPAddr      string `env:"HTTP_ADDR" envDefault:":8080"`

	Timezone string `env:"TIMEZONE" envDefault:"Asia/Manila"`

	MeetingBaseURL    string        `env:"MEETING_BASE_URL" envDefault:"https://meet.jit.si"`
	MeetingRoomPrefix string        `env:"MEETING_ROOM_PREFIX" envDefault:"counseling"`
	ProvisionTimeout  time.Duration `env:"PROVISION_TIMEOUT" envDefault:"30s"`

	OfficesFile   string `env:"OFFICES_FILE"`
	DefaultOffice string `env:"DEFAULT_OFFICE"`

	AutoCompleteInterval time.Duration `env:"AUTO_COMPLETE_INTERVAL" envDefault:"15m"`
	DirectoryCacheTTL    time.Duration `env:"DIRECTORY_CACHE_TTL" envDefault:"5m"`  // 0 отключает кэш
	DigestCron           string        `env:"DIGEST_CRON" envDefault:"0 7 * * 1-6"` // "off" отключает дайджест

	RateLimitPerSec float64 `env:"RATE_LIMIT_PER_SEC" envDefault:"10"`
	RateLimitBurst  int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.ProvisionTimeout <= 0 {
		return fmt.Errorf("PROVISION_TIMEOUT must be positive")
	}
	if c.AutoCompleteInterval < 0 {
		return fmt.Errorf("AUTO_COMPLETE_INTERVAL must not be negative")
	}
	if c.DirectoryCacheTTL < 0 {
		return fmt.Errorf("DIRECTORY_CACHE_TTL must not be negative")
	}
	if c.RateLimitPerSec <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_SEC and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// Location возвращает часовой пояс расписания
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// IsProduction сообщает, что сервис запущен в production
// DigestEnabled сообщает, нужна ли утренняя рассылка консультантам
func (c *Config) DigestEnabled() bool {
	return c.DigestCron != "" && c.DigestCron != "off"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
