package config

import (
	"fmt"
	"time"
)

// AppConfig holds everything the process needs besides the database.
type AppConfig struct {
	HTTPAddr string
	GRPCAddr string // gRPC health endpoint
	LogLevel string

	JWTSecret string
	JWTTTL    time.Duration

	CORSOrigins []string
	// Requests per second per client IP on /api/auth.
	AuthRateLimit int

	AMQPURL      string // empty disables publishing
	AMQPExchange string

	ActivityBuffer int

	AdminEmail    string
	AdminPassword string
}

func LoadAppConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:       getEnv("HTTP_ADDR", ":5000"),
		GRPCAddr:       getEnv("GRPC_HEALTH_ADDR", ":50051"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTTTL:         getEnvDuration("JWT_TTL", 30*24*time.Hour),
		CORSOrigins:    getEnvList("CORS_ORIGINS", []string{"*"}),
		AuthRateLimit:  getEnvInt("AUTH_RATE_LIMIT", 10),
		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "activity_topic"),
		ActivityBuffer: getEnvInt("ACTIVITY_BUFFER", 256),
		AdminEmail:     getEnv("ADMIN_EMAIL", ""),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("invalid app config: JWT_SECRET must be set")
	}
	if cfg.JWTTTL <= 0 {
		return nil, fmt.Errorf("invalid app config: JWT_TTL must be positive")
	}
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return nil, fmt.Errorf("invalid app config: ADMIN_EMAIL and ADMIN_PASSWORD go together")
	}
	if cfg.ActivityBuffer <= 0 {
		cfg.ActivityBuffer = 1
	}

	return cfg, nil
}
