package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	WebSocket WebSocketConfig
	Storage   StorageConfig
	RabbitMQ  RabbitMQConfig
	Session   SessionConfig
	RoomCache RoomCacheConfig `mapstructure:"room_cache"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port           string
	ReadTimeout    int      `mapstructure:"read_timeout"`
	WriteTimeout   int      `mapstructure:"write_timeout"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig содержит настройки подключения к БД.
// Driver: "postgres" (по умолчанию) или "sqlite" для локальной разработки.
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string `mapstructure:"sqlite_path"`
	LogLevel   string `mapstructure:"log_level"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Enabled: без Redis отключаются кеш списка комнат, rate limiting и кластеризация WebSocket
	Enabled bool `mapstructure:"enabled"`

	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	Addrs []string `mapstructure:"addrs"`
	Addr  string   `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// JWTConfig содержит настройки JWT
type JWTConfig struct {
	Secret            string `mapstructure:"secret"`
	ExpirationMinutes int    `mapstructure:"expiration_minutes"`
	WSTicketExpirySec int    `mapstructure:"ws_ticket_expiry_sec"`
}

// WebSocketConfig содержит настройки канала уведомлений
type WebSocketConfig struct {
	Cluster    ClusterConfig
	SendBuffer int `mapstructure:"send_buffer"`
}

// ClusterConfig содержит настройки кластеризации
type ClusterConfig struct {
	Enabled          bool
	InstanceID       string `mapstructure:"instance_id"`
	BroadcastChannel string `mapstructure:"broadcast_channel"`
}

// StorageConfig описывает хранилище загруженных файлов викторин
type StorageConfig struct {
	// Driver: "disk" (по умолчанию) или "s3"
	Driver    string
	UploadDir string `mapstructure:"upload_dir"`
	S3        S3Config
}

// S3Config содержит настройки S3-совместимого хранилища (MinIO)
type S3Config struct {
	Endpoint  string
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string
	UseSSL    bool `mapstructure:"use_ssl"`
}

// RabbitMQConfig содержит настройки публикации событий сессий
type RabbitMQConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	Queue    string
}

// SessionConfig содержит настройки жизненного цикла сессий
type SessionConfig struct {
	// AbandonGraceMinutes добавляется к лимиту времени комнаты перед переводом в abandoned
	AbandonGraceMinutes int `mapstructure:"abandon_grace_minutes"`
	SweepIntervalSec    int `mapstructure:"sweep_interval_sec"`
}

// RoomCacheConfig содержит настройки кеша списка комнат
type RoomCacheConfig struct {
	TTLSec int `mapstructure:"ttl_sec"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// PostgresURL формирует URL для golang-migrate
func (d *DatabaseConfig) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// AMQPURL формирует строку подключения к RabbitMQ
func (r *RabbitMQConfig) AMQPURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", r.User, r.Password, r.Host, r.Port)
}

// SweepInterval возвращает интервал фоновой очистки просроченных сессий
func (s SessionConfig) SweepInterval() time.Duration {
	return time.Duration(s.SweepIntervalSec) * time.Second
}

// AbandonGrace возвращает запас времени сверх лимита комнаты
func (s SessionConfig) AbandonGrace() time.Duration {
	return time.Duration(s.AbandonGraceMinutes) * time.Minute
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8000")
	vip.SetDefault("server.read_timeout", 15)
	vip.SetDefault("server.write_timeout", 30)
	vip.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000", "http://localhost:8000"})
	vip.SetDefault("database.driver", "postgres")
	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.sqlite_path", "school_quiz.db")
	vip.SetDefault("database.log_level", "warn")
	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("jwt.expiration_minutes", 480)
	vip.SetDefault("jwt.ws_ticket_expiry_sec", 60)
	vip.SetDefault("websocket.send_buffer", 32)
	vip.SetDefault("websocket.cluster.broadcast_channel", "school_quiz:rooms")
	vip.SetDefault("storage.driver", "disk")
	vip.SetDefault("storage.upload_dir", "uploads")
	vip.SetDefault("rabbitmq.port", "5672")
	vip.SetDefault("rabbitmq.queue", "session_events")
	vip.SetDefault("session.abandon_grace_minutes", 15)
	vip.SetDefault("session.sweep_interval_sec", 300)
	vip.SetDefault("room_cache.ttl_sec", 30)
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	setDefaults(vip)

	// Привязываем переменные окружения ЯВНО
	vip.BindEnv("server.port", "SERVER_PORT")

	vip.BindEnv("database.driver", "DATABASE_DRIVER")
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")
	vip.BindEnv("database.sqlite_path", "DATABASE_SQLITE_PATH")

	vip.BindEnv("redis.enabled", "REDIS_ENABLED")
	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expiration_minutes", "JWT_EXPIRATION_MINUTES")

	vip.BindEnv("websocket.cluster.enabled", "WEBSOCKET_CLUSTER_ENABLED")
	vip.BindEnv("websocket.cluster.instance_id", "WEBSOCKET_CLUSTER_INSTANCE_ID")

	vip.BindEnv("storage.driver", "STORAGE_DRIVER")
	vip.BindEnv("storage.upload_dir", "STORAGE_UPLOAD_DIR")
	vip.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	vip.BindEnv("storage.s3.access_key", "S3_ACCESS_KEY")
	vip.BindEnv("storage.s3.secret_key", "S3_SECRET_KEY")
	vip.BindEnv("storage.s3.bucket", "S3_BUCKET")
	vip.BindEnv("storage.s3.use_ssl", "S3_USE_SSL")

	vip.BindEnv("rabbitmq.enabled", "RABBITMQ_ENABLED")
	vip.BindEnv("rabbitmq.host", "RABBITMQ_HOST")
	vip.BindEnv("rabbitmq.port", "RABBITMQ_PORT")
	vip.BindEnv("rabbitmq.user", "RABBITMQ_USER")
	vip.BindEnv("rabbitmq.password", "RABBITMQ_PASSWORD")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Отсутствие файла не критично: значения берутся из окружения и умолчаний
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Driver: %s", cfg.Database.Driver)
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Enabled: %t (mode: %s)", cfg.Redis.Enabled, cfg.Redis.Mode)
		log.Printf("JWT Expiration Minutes: %d", cfg.JWT.ExpirationMinutes)
		log.Printf("Storage Driver: %s", cfg.Storage.Driver)
		log.Printf("RabbitMQ Enabled: %t", cfg.RabbitMQ.Enabled)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("Websocket Cluster Enabled: %t", cfg.WebSocket.Cluster.Enabled)
		log.Printf("-----------------------------------------")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate проверяет обязательные параметры
func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
			return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.WebSocket.Cluster.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("websocket cluster mode requires redis.enabled=true")
	}
	switch c.Storage.Driver {
	case "disk":
		if c.Storage.UploadDir == "" {
			return fmt.Errorf("storage.upload_dir is required for disk storage")
		}
	case "s3":
		if c.Storage.S3.Endpoint == "" || c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3 endpoint and bucket are required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver)
	}
	return nil
}
