package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config конфигурация сервиса
type Config struct {
	Server          ServerConfig      `toml:"server"`
	Database        DatabaseConfig    `toml:"database"`
	Logs            LogsConfig        `toml:"logs"`
	Metrics         MetricsConfig     `toml:"metrics"`
	Sweeper         SweeperConfig     `toml:"sweeper"`
	IdentityService IntegrationConfig `toml:"identity_service"`
	AuditService    IntegrationConfig `toml:"audit_service"`
	RabbitMQ        RabbitMQConfig    `toml:"rabbitmq"`
}

// ServerConfig настройки HTTP-сервера
type ServerConfig struct {
	HTTPPort     int `toml:"http_port"`
	ReadTimeout  int `toml:"read_timeout"`  // секунды
	WriteTimeout int `toml:"write_timeout"` // секунды
	IdleTimeout  int `toml:"idle_timeout"`  // секунды
}

// DatabaseConfig настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN возвращает строку подключения к PostgreSQL
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// MetricsConfig настройки prometheus-метрик
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// SweeperConfig настройки фонового свипера
type SweeperConfig struct {
	IntervalSeconds      int `toml:"interval_seconds"`
	BatchLimit           int `toml:"batch_limit"`
	ReminderHorizonHours int `toml:"reminder_horizon_hours"`
}

// IntegrationConfig настройки HTTP-клиента внешнего сервиса
type IntegrationConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // секунды
}

// RabbitMQConfig настройки брокера уведомлений
type RabbitMQConfig struct {
	Enabled  bool   `toml:"enabled"`
	URL      string `toml:"url"`
	Exchange string `toml:"exchange"`
}

// Load читает конфигурацию из TOML-файла
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to load %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.HTTPPort <= 0 {
		return fmt.Errorf("config: server.http_port must be positive")
	}
	if c.Database.Host == "" || c.Database.DBName == "" {
		return fmt.Errorf("config: database.host and database.dbname are required")
	}
	if c.IdentityService.URL == "" {
		return fmt.Errorf("config: identity_service.url is required")
	}
	if c.AuditService.URL == "" {
		return fmt.Errorf("config: audit_service.url is required")
	}
	if c.RabbitMQ.Enabled && c.RabbitMQ.URL == "" {
		return fmt.Errorf("config: rabbitmq.url is required when rabbitmq.enabled")
	}
	return nil
}
