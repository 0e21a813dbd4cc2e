package config

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPHost           string
	HTTPPort           int
	HTTPRequestTimeout time.Duration
	HTTPBodyLimit      int64
	ShutdownTimeout    time.Duration
	LogLevel           string

	StorageDriver    string
	StoragePath      string
	StorageDSN       string
	StorageRedisAddr string
	PersistTimeout   time.Duration

	GridStartHour   int
	GridEndHour     int
	GridStepMinutes int
}

func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AGENDA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.host", "127.0.0.1")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.addr", "")
	v.SetDefault("http.request_timeout", "10s")
	v.SetDefault("http.body_limit_bytes", 1<<20)
	v.SetDefault("shutdown.timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.path", "./agendadata")
	v.SetDefault("storage.dsn", "agenda.db")
	v.SetDefault("storage.redis_addr", "127.0.0.1:6379")
	v.SetDefault("persist.timeout", "5s")
	v.SetDefault("grid.start_hour", 8)
	v.SetDefault("grid.end_hour", 19)
	v.SetDefault("grid.step_minutes", 30)

	_ = v.BindEnv("http.host", "AGENDA_HTTP_HOST", "HTTP_HOST")
	_ = v.BindEnv("http.port", "AGENDA_HTTP_PORT", "HTTP_PORT", "PORT")
	_ = v.BindEnv("http.addr", "AGENDA_HTTP_ADDR", "HTTP_ADDR")
	_ = v.BindEnv("http.request_timeout", "AGENDA_HTTP_REQUEST_TIMEOUT")
	_ = v.BindEnv("http.body_limit_bytes", "AGENDA_HTTP_BODY_LIMIT_BYTES")
	_ = v.BindEnv("shutdown.timeout", "AGENDA_SHUTDOWN_TIMEOUT", "SHUTDOWN_TIMEOUT")
	_ = v.BindEnv("log.level", "AGENDA_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("storage.driver", "AGENDA_STORAGE_DRIVER")
	_ = v.BindEnv("storage.path", "AGENDA_STORAGE_PATH")
	_ = v.BindEnv("storage.dsn", "AGENDA_STORAGE_DSN")
	_ = v.BindEnv("storage.redis_addr", "AGENDA_STORAGE_REDIS_ADDR")
	_ = v.BindEnv("persist.timeout", "AGENDA_PERSIST_TIMEOUT")
	_ = v.BindEnv("grid.start_hour", "AGENDA_GRID_START_HOUR")
	_ = v.BindEnv("grid.end_hour", "AGENDA_GRID_END_HOUR")
	_ = v.BindEnv("grid.step_minutes", "AGENDA_GRID_STEP_MINUTES")

	requestTimeout, err := time.ParseDuration(v.GetString("http.request_timeout"))
	if err != nil {
		return Config{}, err
	}
	shutdownTimeout, err := time.ParseDuration(v.GetString("shutdown.timeout"))
	if err != nil {
		return Config{}, err
	}
	persistTimeout, err := time.ParseDuration(v.GetString("persist.timeout"))
	if err != nil {
		return Config{}, err
	}

	if addr := strings.TrimSpace(v.GetString("http.addr")); addr != "" {
		host, portStr, err := net.SplitHostPort(addr)
		if err == nil {
			if host != "" {
				v.Set("http.host", host)
			}
			if port, err := strconv.Atoi(portStr); err == nil {
				v.Set("http.port", port)
			}
		}
	}

	return Config{
		HTTPHost:           strings.TrimSpace(v.GetString("http.host")),
		HTTPPort:           v.GetInt("http.port"),
		HTTPRequestTimeout: requestTimeout,
		HTTPBodyLimit:      v.GetInt64("http.body_limit_bytes"),
		ShutdownTimeout:    shutdownTimeout,
		LogLevel:           v.GetString("log.level"),
		StorageDriver:      v.GetString("storage.driver"),
		StoragePath:        v.GetString("storage.path"),
		StorageDSN:         v.GetString("storage.dsn"),
		StorageRedisAddr:   v.GetString("storage.redis_addr"),
		PersistTimeout:     persistTimeout,
		GridStartHour:      v.GetInt("grid.start_hour"),
		GridEndHour:        v.GetInt("grid.end_hour"),
		GridStepMinutes:    v.GetInt("grid.step_minutes"),
	}, nil
}
