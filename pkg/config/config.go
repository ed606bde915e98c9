package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jrcode-ui/alchemy-discord-bot/internal/discord"
)

type Config struct {
	Project string         `mapstructure:"project"`
	Log     LogConfig      `mapstructure:"log"`
	Server  ServerConfig   `mapstructure:"server"`
	Queue   QueueConfig    `mapstructure:"queue"`
	Discord discord.Config `mapstructure:"discord"`
	Outputs OutputsConfig  `mapstructure:"outputs"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

type ServerConfig struct {
	Listen       string        `mapstructure:"listen"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type QueueConfig struct {
	Depth   int `mapstructure:"depth"`   // buffered deliveries before intake rejects
	Workers int `mapstructure:"workers"` // concurrent payload processors
}

type OutputsConfig struct {
	Console  ConsoleOutputConfig  `mapstructure:"console"`
	Kafka    KafkaOutputConfig    `mapstructure:"kafka"`
	RabbitMQ RabbitMQOutputConfig `mapstructure:"rabbitmq"`
	Redis    RedisOutputConfig    `mapstructure:"redis"`
	Postgres PostgresOutputConfig `mapstructure:"postgres"`
}

type ConsoleOutputConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type KafkaOutputConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Brokers  []string `mapstructure:"brokers"`
	Topic    string   `mapstructure:"topic"`
	User     string   `mapstructure:"user"`
	Password string   `mapstructure:"password"`
}

type RabbitMQOutputConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	Exchange   string `mapstructure:"exchange"`
	RoutingKey string `mapstructure:"routing_key"`
	Queue      string `mapstructure:"queue"`
	Durable    bool   `mapstructure:"durable"`
}

type RedisOutputConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
	Mode     string `mapstructure:"mode"` // list, pubsub
}

type PostgresOutputConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Table   string `mapstructure:"table"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The webhook URL is the one secret most deployments keep out of
	// the file. DISCORD_WEBHOOK_URL is the unprefixed spelling.
	v.BindEnv("discord.url", "RELAY_DISCORD_URL", "DISCORD_WEBHOOK_URL")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; the environment can carry everything.
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Set default values
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":5001"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10 * time.Second
	}
	if cfg.Queue.Depth < 1 {
		cfg.Queue.Depth = 100
	}
	if cfg.Queue.Workers < 1 {
		cfg.Queue.Workers = 4
	}
	if cfg.Discord.URL == "" {
		cfg.Discord.URL = discord.SentinelURL
	}
	if cfg.Outputs.Redis.Enabled {
		if cfg.Outputs.Redis.Key == "" {
			cfg.Outputs.Redis.Key = "dispute_notifications"
		}
		if cfg.Outputs.Redis.Mode == "" {
			cfg.Outputs.Redis.Mode = "list"
		}
	}

	return &cfg, nil
}

// Validate rejects combinations Load cannot default its way out of.
func (c *Config) Validate() error {
	if c.Discord.RateLimit < 0 {
		return fmt.Errorf("discord.rate_limit must not be negative, got %v", c.Discord.RateLimit)
	}
	if c.Outputs.Redis.Enabled && c.Outputs.Redis.Mode != "list" && c.Outputs.Redis.Mode != "pubsub" {
		return fmt.Errorf("outputs.redis.mode must be list or pubsub, got %q", c.Outputs.Redis.Mode)
	}
	if c.Outputs.Kafka.Enabled && len(c.Outputs.Kafka.Brokers) == 0 {
		return errors.New("outputs.kafka.brokers must not be empty when kafka is enabled")
	}
	if c.Outputs.RabbitMQ.Enabled && c.Outputs.RabbitMQ.URL == "" {
		return errors.New("outputs.rabbitmq.url must not be empty when rabbitmq is enabled")
	}
	if c.Outputs.Postgres.Enabled && c.Outputs.Postgres.URL == "" {
		return errors.New("outputs.postgres.url must not be empty when postgres is enabled")
	}
	return nil
}
