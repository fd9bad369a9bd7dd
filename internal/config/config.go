package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultImagePool holds the placeholder references returned by the stub generator
var DefaultImagePool = []string{
	"https://images.unsplash.com/photo-1614728894747-a83421e2b9c9?w=1200&h=675&fit=crop",
	"https://images.unsplash.com/photo-1446776709462-d6b525c57bd3?w=1200&h=675&fit=crop",
	"https://images.unsplash.com/photo-1419242902214-272b3f66ee7a?w=1200&h=675&fit=crop",
	"https://images.unsplash.com/photo-1462331940025-496dfbfc7564?w=1200&h=675&fit=crop",
	"https://images.unsplash.com/photo-1464802686167-b939a6910659?w=1200&h=675&fit=crop",
}

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	filePath := os.Getenv(envKey + "_FILE")
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	os.Setenv(envKey, strings.TrimSpace(string(data)))
}

type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	Queue    QueueConfig
	ImageGen ImageGenConfig
	Scenes   ScenesConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// QueueConfig toggles asynq-backed batch execution. When disabled batches
// run in-process and batch records live in memory.
type QueueConfig struct {
	Enabled bool
}

type ImageGenConfig struct {
	Latency   time.Duration
	Pool      []string
	RemoteURL string
	Timeout   time.Duration
}

type ScenesConfig struct {
	Pacing         time.Duration
	StoryboardPath string
}

func Load() (*Config, error) {
	readSecret("REDIS_PASSWORD")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()

	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.env", "SERVER_ENV")
	_ = v.BindEnv("server.log_level", "LOG_LEVEL")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("queue.enabled", "QUEUE_ENABLED")
	_ = v.BindEnv("imagegen.latency", "IMAGEGEN_LATENCY")
	_ = v.BindEnv("imagegen.pool", "IMAGEGEN_POOL")
	_ = v.BindEnv("imagegen.remote_url", "IMAGEGEN_REMOTE_URL")
	_ = v.BindEnv("imagegen.timeout", "IMAGEGEN_TIMEOUT")
	_ = v.BindEnv("scenes.pacing", "SCENES_PACING")
	_ = v.BindEnv("scenes.storyboard_path", "SCENES_STORYBOARD_PATH")

	// Defaults
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("queue.enabled", false)
	v.SetDefault("imagegen.latency", 2*time.Second)
	v.SetDefault("imagegen.pool", DefaultImagePool)
	v.SetDefault("imagegen.timeout", 30*time.Second)
	v.SetDefault("scenes.pacing", time.Second)

	// Try to read config file (optional)
	_ = v.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetString("server.port"),
			Env:      v.GetString("server.env"),
			LogLevel: v.GetString("server.log_level"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Queue: QueueConfig{
			Enabled: v.GetBool("queue.enabled"),
		},
		ImageGen: ImageGenConfig{
			Latency:   v.GetDuration("imagegen.latency"),
			Pool:      splitPool(v.GetStringSlice("imagegen.pool")),
			RemoteURL: strings.TrimRight(v.GetString("imagegen.remote_url"), "/"),
			Timeout:   v.GetDuration("imagegen.timeout"),
		},
		Scenes: ScenesConfig{
			Pacing:         v.GetDuration("scenes.pacing"),
			StoryboardPath: v.GetString("scenes.storyboard_path"),
		},
	}

	return cfg, nil
}

// splitPool flattens comma separated entries coming from IMAGEGEN_POOL
func splitPool(entries []string) []string {
	var pool []string
	for _, e := range entries {
		for _, part := range strings.Split(e, ",") {
			if part = strings.TrimSpace(part); part != "" {
				pool = append(pool, part)
			}
		}
	}
	return pool
}
