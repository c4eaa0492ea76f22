package config

import (
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Gateway  GatewayConfig
	Kafka    KafkaConfig
	Minio    MinioConfig
}

var (
	ConfigInstance *Config
	once           sync.Once
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	// URI wins over the individual POSTGRES_* components when set.
	URI      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	URI          string
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
}

type JWTConfig struct {
	Secret         string
	ExpirationTime time.Duration
}

// GatewayConfig tunes the realtime collaboration gateway.
type GatewayConfig struct {
	// PersistInterval is the trailing-edge throttle window for code
	// persistence: at most one durable write per interview per window.
	PersistInterval time.Duration
	// ThrottleTTL evicts idle per-interview throttle entries.
	ThrottleTTL time.Duration
	// AllowSpectators admits authenticated non-participants to interview
	// rooms. Off by default; room admission is enforced.
	AllowSpectators bool
	SendBuffer      int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func (m MinioConfig) Enabled() bool {
	return m.Endpoint != ""
}

func LoadConfig() (*Config, error) {
	// Viper setup
	once.Do(func() {
		viper.SetDefault("INTERVIEW_PORT", "8080")
		viper.SetDefault("INTERVIEW_READ_TIMEOUT", 30*time.Second)
		viper.SetDefault("INTERVIEW_WRITE_TIMEOUT", 30*time.Second)
		viper.SetDefault("INTERVIEW_IDLE_TIMEOUT", 60*time.Second)
		viper.SetDefault("INTERVIEW_JWT_SECRET", "secret")
		viper.SetDefault("INTERVIEW_JWT_EXPIRE", "24h")
		viper.SetDefault("REDIS_URL", "redis://127.0.0.1:6379/0")
		viper.SetDefault("REDIS_MAX_RETRIES", 3)
		viper.SetDefault("REDIS_POOL_SIZE", 100)
		viper.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
		viper.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
		viper.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
		viper.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)
		viper.SetDefault("POSTGRES_USER", "postgres")
		viper.SetDefault("POSTGRES_PASSWORD", "password")
		viper.SetDefault("POSTGRES_HOST", "localhost")
		viper.SetDefault("POSTGRES_PORT", "5432")
		viper.SetDefault("POSTGRES_DB", "interview")
		viper.SetDefault("GATEWAY_PERSIST_INTERVAL", 2*time.Second)
		viper.SetDefault("GATEWAY_THROTTLE_TTL", 10*time.Minute)
		viper.SetDefault("GATEWAY_ALLOW_SPECTATORS", false)
		viper.SetDefault("GATEWAY_SEND_BUFFER", 256)
		viper.SetDefault("KAFKA_BROKERS", "")
		viper.SetDefault("KAFKA_TOPIC", "interview-events")
		viper.SetDefault("MINIO_ENDPOINT", "")
		viper.SetDefault("MINIO_ACCESS_KEY", "")
		viper.SetDefault("MINIO_SECRET_KEY", "")
		viper.SetDefault("MINIO_BUCKET", "interview-archives")
		viper.SetDefault("MINIO_USE_SSL", false)
		viper.AutomaticEnv()

		var brokers []string
		if raw := viper.GetString("KAFKA_BROKERS"); raw != "" {
			for _, b := range strings.Split(raw, ",") {
				brokers = append(brokers, strings.TrimSpace(b))
			}
		}

		ConfigInstance = &Config{
			Server: ServerConfig{
				Host:         viper.GetString("INTERVIEW_HOST"),
				Port:         viper.GetString("INTERVIEW_PORT"),
				ReadTimeout:  viper.GetDuration("INTERVIEW_READ_TIMEOUT"),
				WriteTimeout: viper.GetDuration("INTERVIEW_WRITE_TIMEOUT"),
				IdleTimeout:  viper.GetDuration("INTERVIEW_IDLE_TIMEOUT"),
			},
			Database: DatabaseConfig{
				URI:      viper.GetString("DATABASE_URL"),
				Host:     viper.GetString("POSTGRES_HOST"),
				Port:     viper.GetString("POSTGRES_PORT"),
				User:     viper.GetString("POSTGRES_USER"),
				Password: viper.GetString("POSTGRES_PASSWORD"),
				DBName:   viper.GetString("POSTGRES_DB"),
			},
			Redis: RedisConfig{
				URI:          viper.GetString("REDIS_URL"),
				MaxRetries:   viper.GetInt("REDIS_MAX_RETRIES"),
				DialTimeout:  viper.GetDuration("REDIS_DIAL_TIMEOUT"),
				ReadTimeout:  viper.GetDuration("REDIS_READ_TIMEOUT"),
				WriteTimeout: viper.GetDuration("REDIS_WRITE_TIMEOUT"),
				PoolSize:     viper.GetInt("REDIS_POOL_SIZE"),
				MinIdleConns: viper.GetInt("REDIS_MIN_IDLE_CONNS"),
			},
			JWT: JWTConfig{
				Secret:         viper.GetString("INTERVIEW_JWT_SECRET"),
				ExpirationTime: viper.GetDuration("INTERVIEW_JWT_EXPIRE"),
			},
			Gateway: GatewayConfig{
				PersistInterval: viper.GetDuration("GATEWAY_PERSIST_INTERVAL"),
				ThrottleTTL:     viper.GetDuration("GATEWAY_THROTTLE_TTL"),
				AllowSpectators: viper.GetBool("GATEWAY_ALLOW_SPECTATORS"),
				SendBuffer:      viper.GetInt("GATEWAY_SEND_BUFFER"),
			},
			Kafka: KafkaConfig{
				Brokers: brokers,
				Topic:   viper.GetString("KAFKA_TOPIC"),
			},
			Minio: MinioConfig{
				Endpoint:  viper.GetString("MINIO_ENDPOINT"),
				AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
				SecretKey: viper.GetString("MINIO_SECRET_KEY"),
				Bucket:    viper.GetString("MINIO_BUCKET"),
				UseSSL:    viper.GetBool("MINIO_USE_SSL"),
			},
		}
	})

	return ConfigInstance, nil
}
