package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreDynamoDB = "dynamodb"
)

const (
	SinkLog   = "log"
	SinkKafka = "kafka"
	SinkNATS  = "nats"
)

type Config struct {
	Env        string     `yaml:"env"`
	BaseURL    string     `yaml:"base_url"`
	ShortCode  ShortCode  `yaml:"short_code"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Store      Store      `yaml:"store"`
	Postgres   Postgres   `yaml:"postgres"`
	Redis      Redis      `yaml:"redis"`
	DynamoDB   DynamoDB   `yaml:"dynamodb"`
	Analytics  Analytics  `yaml:"analytics"`
	Tracing    Tracing    `yaml:"tracing"`
}

type ShortCode struct {
	Length     int `yaml:"length"`
	MaxRetries int `yaml:"max_retries"`
}

var defaultShortCode = ShortCode{
	Length:     6,
	MaxRetries: 5,
}

type HTTPServer struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CertFile        string        `yaml:"cert_file"`
	KeyFile         string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:            8080,
	ReadTimeout:     5 * time.Second,
	WriteTimeout:    10 * time.Second,
	IdleTimeout:     time.Minute,
	MaxHeaderBytes:  1 << 20,
	ShutdownTimeout: 10 * time.Second,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// Store selects the record backend. Table names the DynamoDB table and
// prefixes Redis keys; the Postgres table is fixed by its migrations.
type Store struct {
	Driver string `yaml:"driver"`
	Table  string `yaml:"table"`
}

var defaultStore = Store{
	Driver: StorePostgres,
	Table:  "short_urls",
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

var defaultRedis = Redis{
	Addr: "localhost:6379",
}

type DynamoDB struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

var defaultDynamoDB = DynamoDB{
	Region: "us-east-1",
}

type Analytics struct {
	Sink      string        `yaml:"sink"`
	Workers   int           `yaml:"workers"`
	QueueSize int           `yaml:"queue_size"`
	Timeout   time.Duration `yaml:"timeout"`
	Kafka     Kafka         `yaml:"kafka"`
	NATS      NATS          `yaml:"nats"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type NATS struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

var defaultAnalytics = Analytics{
	Sink:      SinkLog,
	Workers:   4,
	QueueSize: 1024,
	Timeout:   2 * time.Second,
	Kafka: Kafka{
		Brokers: []string{"localhost:9092"},
		Topic:   "shortlink.clicks",
	},
	NATS: NATS{
		URL:     "nats://localhost:4222",
		Subject: "shortlink.clicks",
	},
}

type Tracing struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

var defaultTracing = Tracing{
	Endpoint:    "localhost:4317",
	Insecure:    true,
	ServiceName: "shortlink",
	SampleRatio: 1,
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
	}
	defer f.Close()

	var cfg Config
	setDefaults(&cfg)

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.ShortCode = defaultShortCode
	cfg.HTTPServer = defaultHTTPServer
	cfg.Store = defaultStore
	cfg.Postgres = defaultPostgres
	cfg.Redis = defaultRedis
	cfg.DynamoDB = defaultDynamoDB
	cfg.Analytics = defaultAnalytics
	cfg.Analytics.Kafka.Brokers = append([]string(nil), defaultAnalytics.Kafka.Brokers...)
	cfg.Tracing = defaultTracing
}

func (c *Config) validate() error {
	var errs []error

	switch c.Store.Driver {
	case StoreMemory, StorePostgres, StoreRedis, StoreDynamoDB:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}

	switch c.Analytics.Sink {
	case SinkLog, SinkKafka, SinkNATS:
	default:
		errs = append(errs, fmt.Errorf("unknown analytics sink %q", c.Analytics.Sink))
	}

	if c.ShortCode.Length <= 0 {
		errs = append(errs, errors.New("short_code.length must be positive"))
	}
	if c.ShortCode.MaxRetries <= 0 {
		errs = append(errs, errors.New("short_code.max_retries must be positive"))
	}

	if c.Env == EnvProd && (c.HTTPServer.CertFile == "" || c.HTTPServer.KeyFile == "") {
		errs = append(errs, errors.New("http_server.cert_file and key_file are required in prod"))
	}

	return errors.Join(errs...)
}
