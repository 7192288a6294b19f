package config

import (
	"flag"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env        string           `yaml:"env" env:"ENV" env-default:"local"` // environment
	HTTPServer HTTPServerConfig `yaml:"http_server"`
	Database   DatabaseConfig   `yaml:"database"`
	Session    SessionConfig    `yaml:"session"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Migrations MigrationsConfig `yaml:"migrations"`
}

// HTTPServerConfig структура http сервера
type HTTPServerConfig struct {
	Host        string        `yaml:"host" env:"HOST" env-default:"0.0.0.0"`
	Port        int           `yaml:"port" env:"PORT" env-default:"10000"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

func (c HTTPServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DatabaseConfig структура по работе с БД. URL, если задан, важнее отдельных полей.
type DatabaseConfig struct {
	URL      string `yaml:"url" env:"DATABASE_URL"`
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-default:"postgres"`
	Password string `yaml:"-" env:"DB_PASSWORD"`
	Name     string `yaml:"name" env-default:"inventory"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

// DSN строка подключения для lib/pq и golang-migrate
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// SessionConfig настройка cookie сессии
type SessionConfig struct {
	Secret       string        `yaml:"-" env:"SECRET_KEY" env-required:"true"`
	TTL          time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"24h"`
	CookieName   string        `yaml:"cookie_name" env-default:"inventory_session"`
	SecureCookie bool          `yaml:"secure_cookie" env:"SESSION_SECURE_COOKIE" env-default:"false"`
}

// RedisConfig пустой адрес означает хранение сессий в памяти процесса
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// KafkaConfig без брокеров события о заказах не публикуются
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"inventory.order.committed"`
}

type MigrationsConfig struct {
	Path string `yaml:"path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
}

// MustLoad - если не загружаем - паникуем
func MustLoad() *Config {
	return MustLoadFrom(fetchConfigPath())
}

// MustLoadFrom читает yaml-файл, если путь задан, иначе только окружение
func MustLoadFrom(configPath string) *Config {
	// .env необязателен, переменные окружения процесса важнее
	_ = godotenv.Load()

	if configPath == "" {
		return MustLoadEnv()
	}
	return MustLoadByPath(configPath)
}

func fetchConfigPath() string {
	var path string

	flag.StringVar(&path, "config", "", "path to config file")
	flag.Parse()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}

func MustLoadByPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file not found: " + configPath)
	}

	cfg, err := LoadByPath(configPath)
	if err != nil {
		log.Fatalf("can't read config file %s: %v", configPath, err)
	}
	return cfg
}

func MustLoadEnv() *Config {
	cfg, err := LoadEnv()
	if err != nil {
		log.Fatalf("can't read config from environment: %v", err)
	}
	return cfg
}

// LoadByPath читает yaml, затем накладывает переменные окружения
func LoadByPath(configPath string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", configPath, err)
	}
	return &cfg, nil
}

func LoadEnv() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	return &cfg, nil
}

// MigratorConfig часть конфига, нужная мигратору; секрет сессий ему не нужен
type MigratorConfig struct {
	Database   DatabaseConfig   `yaml:"database"`
	Migrations MigrationsConfig `yaml:"migrations"`
}

func LoadMigrator(configPath string) (*MigratorConfig, error) {
	_ = godotenv.Load()

	var cfg MigratorConfig
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", configPath, err)
	}
	return &cfg, nil
}
