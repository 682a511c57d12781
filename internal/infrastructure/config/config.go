package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 儲存排程服務與外部相依的執行設定。
type Config struct {
	App      AppConfig         `yaml:"app"`
	Log      LogConfig         `yaml:"log"`
	Storage  StorageConfig     `yaml:"storage"`
	DB       DBConfig          `yaml:"db"`
	Mongo    MongoConfig       `yaml:"mongo"`
	Redis    RedisConfig       `yaml:"redis"`
	Finnhub  FinnhubConfig     `yaml:"finnhub"`
	Mail     MailConfig        `yaml:"mail"`
	AI       AIConfig          `yaml:"ai"`
	Alerts   AlertsConfig      `yaml:"alerts"`
	Schedule map[string]string `yaml:"schedule"`
	Metrics  MetricsConfig     `yaml:"metrics"`
	Tracing  TracingConfig     `yaml:"tracing"`
}

type AppConfig struct {
	Name           string `yaml:"name"`
	DashboardURL   string `yaml:"dashboard_url"`
	UnsubscribeURL string `yaml:"unsubscribe_url"`
	InactiveDays   int    `yaml:"inactive_days"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Encoding    string `yaml:"encoding"`
	Development bool   `yaml:"development"`
	File        string `yaml:"file"`
	MaxSizeMB   int    `yaml:"max_size_mb"`
	MaxBackups  int    `yaml:"max_backups"`
	MaxAgeDays  int    `yaml:"max_age_days"`
}

// StorageConfig driver 可為 postgres、mongo、memory；空白時依連線設定自動選擇。
type StorageConfig struct {
	Driver string `yaml:"driver"`
}

type DBConfig struct {
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	MaxIdleTime  time.Duration `yaml:"max_idle_time"`
}

type MongoConfig struct {
	URI      string        `yaml:"uri"`
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type FinnhubConfig struct {
	APIKey        string        `yaml:"api_key"`
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerMinute int           `yaml:"rate_per_minute"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
}

type MailConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	FromName    string `yaml:"from_name"`
	FromAddress string `yaml:"from_address"`
	DryRun      bool   `yaml:"dry_run"`
}

type AIConfig struct {
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	ModelWelcome string        `yaml:"model_welcome"`
	ModelNews    string        `yaml:"model_news"`
	Timeout      time.Duration `yaml:"timeout"`
}

type AlertsConfig struct {
	Concurrency int           `yaml:"concurrency"`
	ClaimLease  time.Duration `yaml:"claim_lease"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// LoadFromFile 從 YAML 組態檔載入設定。
func LoadFromFile(path string) (Config, error) {
	// 嘗試載入 .env 檔案（如果存在）
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg = applyDefaults(cfg)
	cfg = applyEnv(cfg)
	return cfg, nil
}

// StorageDriver 回傳實際使用的儲存層。
func (c Config) StorageDriver() string {
	switch c.Storage.Driver {
	case "postgres", "mongo", "memory":
		return c.Storage.Driver
	}
	if c.DB.DSN != "" {
		return "postgres"
	}
	if c.Mongo.URI != "" {
		return "mongo"
	}
	return "memory"
}

func applyDefaults(cfg Config) Config {
	if cfg.App.Name == "" {
		cfg.App.Name = "Signalist"
	}
	if cfg.App.DashboardURL == "" {
		cfg.App.DashboardURL = "https://stock-market-dev.vercel.app/"
	}
	if cfg.App.UnsubscribeURL == "" {
		cfg.App.UnsubscribeURL = "#"
	}
	if cfg.App.InactiveDays == 0 {
		cfg.App.InactiveDays = 15
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Encoding == "" {
		cfg.Log.Encoding = "json"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 100
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 5
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = 28
	}
	if cfg.DB.MaxOpenConns == 0 {
		cfg.DB.MaxOpenConns = 5
	}
	if cfg.DB.MaxIdleConns == 0 {
		cfg.DB.MaxIdleConns = 2
	}
	if cfg.DB.MaxIdleTime == 0 {
		cfg.DB.MaxIdleTime = 15 * time.Minute
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "signalist"
	}
	if cfg.Mongo.Timeout == 0 {
		cfg.Mongo.Timeout = 10 * time.Second
	}
	if cfg.Finnhub.BaseURL == "" {
		cfg.Finnhub.BaseURL = "https://finnhub.io/api/v1"
	}
	if cfg.Finnhub.Timeout == 0 {
		cfg.Finnhub.Timeout = 10 * time.Second
	}
	if cfg.Finnhub.RatePerMinute == 0 {
		cfg.Finnhub.RatePerMinute = 60
	}
	if cfg.Finnhub.CacheTTL == 0 {
		cfg.Finnhub.CacheTTL = time.Hour
	}
	if cfg.Mail.Host == "" {
		cfg.Mail.Host = "smtp.gmail.com"
	}
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 587
	}
	if cfg.Mail.FromName == "" {
		cfg.Mail.FromName = "Signalist"
	}
	if cfg.AI.BaseURL == "" {
		cfg.AI.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	}
	if cfg.AI.ModelWelcome == "" {
		cfg.AI.ModelWelcome = "gemini-2.5-flash"
	}
	if cfg.AI.ModelNews == "" {
		cfg.AI.ModelNews = "gemini-2.5-flash-lite"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 30 * time.Second
	}
	if cfg.Alerts.Concurrency == 0 {
		cfg.Alerts.Concurrency = 4
	}
	if cfg.Alerts.ClaimLease == 0 {
		cfg.Alerts.ClaimLease = 15 * time.Minute
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 1
	}
	return cfg
}

func applyEnv(cfg Config) Config {
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}
	if val := os.Getenv("LOG_FILE"); val != "" {
		cfg.Log.File = val
	}
	if val := os.Getenv("STORAGE_DRIVER"); val != "" {
		cfg.Storage.Driver = val
	}
	if val := os.Getenv("DB_DSN"); val != "" {
		cfg.DB.DSN = val
	}
	if val := os.Getenv("MONGODB_URI"); val != "" {
		cfg.Mongo.URI = val
	}
	if val := os.Getenv("MONGODB_DATABASE"); val != "" {
		cfg.Mongo.Database = val
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		cfg.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("FINNHUB_API_KEY"); val != "" {
		cfg.Finnhub.APIKey = val
	} else if val := os.Getenv("NEXT_PUBLIC_FINNHUB_API_KEY"); val != "" && cfg.Finnhub.APIKey == "" {
		cfg.Finnhub.APIKey = val
	}
	if val := os.Getenv("NODEMAILER_EMAIL"); val != "" {
		cfg.Mail.Username = val
		if cfg.Mail.FromAddress == "" {
			cfg.Mail.FromAddress = val
		}
	}
	if val := os.Getenv("NODEMAILER_PASSWORD"); val != "" {
		cfg.Mail.Password = val
	}
	if val := os.Getenv("MAIL_DRY_RUN"); val != "" {
		cfg.Mail.DryRun = (val == "true")
	}
	if val := os.Getenv("GEMINI_API_KEY"); val != "" {
		cfg.AI.APIKey = val
	}
	if val := os.Getenv("ALERTS_CONCURRENCY"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			cfg.Alerts.Concurrency = n
		}
	}
	if val := os.Getenv("METRICS_ADDR"); val != "" {
		cfg.Metrics.Addr = val
	}
	if val := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); val != "" {
		cfg.Tracing.Endpoint = val
	}
	if cfg.Mail.FromAddress == "" {
		cfg.Mail.FromAddress = cfg.Mail.Username
	}
	return cfg
}
