package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"QuantSuperior/pkg/util"
)

// Signal transports.
const (
	TransportNone   = "none"
	TransportDirect = "direct"
	TransportQueue  = "queue"
	TransportKafka  = "kafka"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		AllowOrigins    []string      `yaml:"allow_origins"`
		RateLimit       struct {
			Enabled bool          `yaml:"enabled"`
			Limit   int           `yaml:"limit"`
			Window  time.Duration `yaml:"window"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
		Debug  bool   `yaml:"debug"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Strategy struct {
		Symbol          string  `yaml:"symbol"`
		IndexSymbol     string  `yaml:"index_symbol"`
		VolSymbol       string  `yaml:"vol_symbol"`
		Period          string  `yaml:"period"`
		Limit           int     `yaml:"limit"`
		CostBps         float64 `yaml:"cost_bps"`
		AllowedWeekdays []int   `yaml:"allowed_weekdays"`
		VolumeWindow    int     `yaml:"volume_window"`
	} `yaml:"strategy"`
	MarketData struct {
		BaseURL   string        `yaml:"base_url"`
		Timeout   time.Duration `yaml:"timeout"`
		UserAgent string        `yaml:"user_agent"`
		CacheTTL  time.Duration `yaml:"cache_ttl"`
	} `yaml:"market_data"`
	Schedule struct {
		Enabled  bool   `yaml:"enabled"`
		Hour     int    `yaml:"hour"`
		Minute   int    `yaml:"minute"`
		Timezone string `yaml:"timezone"`
	} `yaml:"schedule"`
	Notify struct {
		SendEmail bool   `yaml:"send_email"`
		Transport string `yaml:"transport"`
		SMTP      struct {
			Host      string `yaml:"host"`
			Port      int    `yaml:"port"`
			Sender    string `yaml:"sender"`
			Password  string `yaml:"password"`
			Recipient string `yaml:"recipient"`
		} `yaml:"smtp"`
	} `yaml:"notify"`
	Cache struct {
		MemoryMaxSize int `yaml:"memory_max_size"`
		Redis         struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		SignalTopic  string   `yaml:"signal_topic"`
		LogTopic     string   `yaml:"log_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			BatchTimeout time.Duration `yaml:"batch_timeout"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Queue struct {
		Name         string        `yaml:"name"`
		Workers      int           `yaml:"workers"`
		MaxRetries   int           `yaml:"max_retries"`
		PollInterval time.Duration `yaml:"poll_interval"`
	} `yaml:"queue"`
}

// Load reads, defaults and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env (if present), the YAML file and then applies
// environment overrides before validating.
func LoadWithEnv(path string, envFiles ...string) (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load(envFiles...)

	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := getenv("DEBUG"); v != "" {
		c.Log.Debug = util.ParseBool(v)
	}
	if v := getenv("QUANT_SYMBOL"); v != "" {
		c.Strategy.Symbol = v
	}
	if v := getenv("COST_BPS"); v != "" {
		c.Strategy.CostBps = util.ParseFloatDefault(v, c.Strategy.CostBps)
	}
	if v := getenv("SEND_EMAIL"); v != "" {
		c.Notify.SendEmail = util.ParseBool(v)
	}
	if v := getenv("SENDER_EMAIL"); v != "" {
		c.Notify.SMTP.Sender = v
	}
	if v := getenv("SENDER_PASSWORD"); v != "" {
		c.Notify.SMTP.Password = v
	}
	if v := getenv("RECIPIENT_EMAIL"); v != "" {
		c.Notify.SMTP.Recipient = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitCSV(v)
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
}

// Validate checks the configuration for inconsistent settings.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return errors.New("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Strategy.Symbol) == "" {
		return errors.New("strategy.symbol is required")
	}
	if c.Strategy.CostBps < 0 {
		return fmt.Errorf("strategy.cost_bps must be >= 0, got %v", c.Strategy.CostBps)
	}
	if c.Strategy.Limit < 2 {
		return fmt.Errorf("strategy.limit must be >= 2, got %d", c.Strategy.Limit)
	}
	for _, d := range c.Strategy.AllowedWeekdays {
		if d < 0 || d > 6 {
			return fmt.Errorf("strategy.allowed_weekdays: %d not in 0..6", d)
		}
	}
	if c.Schedule.Enabled {
		if c.Schedule.Hour < 0 || c.Schedule.Hour > 23 || c.Schedule.Minute < 0 || c.Schedule.Minute > 59 {
			return fmt.Errorf("schedule time invalid: %02d:%02d", c.Schedule.Hour, c.Schedule.Minute)
		}
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			return fmt.Errorf("schedule.timezone: %w", err)
		}
	}
	switch c.Notify.Transport {
	case TransportNone, TransportDirect, TransportQueue, TransportKafka:
	default:
		return fmt.Errorf("notify.transport must be one of none|direct|queue|kafka, got '%s'", c.Notify.Transport)
	}
	if c.Notify.SendEmail && c.Notify.Transport != TransportNone {
		s := c.Notify.SMTP
		if s.Host == "" || s.Sender == "" || s.Password == "" || s.Recipient == "" {
			return errors.New("notify.smtp host, sender, password and recipient are required when email is enabled")
		}
	}
	if c.Notify.Transport == TransportQueue && !c.Cache.Redis.Enabled {
		return errors.New("notify.transport=queue requires cache.redis")
	}
	if c.Notify.Transport == TransportKafka || c.Kafka.Consumer.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return errors.New("kafka.brokers cannot be empty")
		}
		if c.Kafka.SignalTopic == "" {
			return errors.New("kafka.signal_topic is required")
		}
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return errors.New("clickhouse.host is required")
	}
	return nil
}

// LogLevel resolves the effective level; debug mode wins.
func (c *Config) LogLevel() string {
	if c.Log.Debug {
		return "debug"
	}
	if c.Log.Level == "" {
		return "info"
	}
	return c.Log.Level
}

// Location returns the scheduler time zone, UTC if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
