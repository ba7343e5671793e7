package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseURL     string
	DatabaseName    string
	AllowOrigins    []string
	LogLevel        string
	LogFile         string
	LogstashTCPAddr string
	SwaggerSpecPath string
	ShutdownTimeout time.Duration

	FrontendBaseURL  string
	PasswordResetTTL time.Duration
	BcryptCost       int

	SMTPHost                  string
	SMTPPort                  string
	SMTPUsername              string
	SMTPPassword              string
	SMTPFrom                  string
	SMTPUseTLS                bool
	SMTPTLSInsecureSkipVerify bool
	MailSendTimeout           time.Duration
}

// MailConfigured reports whether outbound mail can be attempted at all.
func (c Config) MailConfigured() bool {
	return c.SMTPHost != ""
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	return Config{
		Port:            getenv("PORT", "8080"),
		DatabaseURL:     must("DATABASE_URL"),
		DatabaseName:    getenv("DATABASE_NAME", ""),
		AllowOrigins:    splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogFile:         getenv("LOG_FILE", ""),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),
		SwaggerSpecPath: getenv("SWAGGER_SPEC_PATH", "docs/swagger.yaml"),
		ShutdownTimeout: duration("SHUTDOWN_TIMEOUT", 10*time.Second),

		FrontendBaseURL:  getenv("FRONTEND_BASE_URL", "http://localhost:3000"),
		PasswordResetTTL: duration("PASSWORD_RESET_TTL", time.Hour),
		BcryptCost:       integer("BCRYPT_COST", 10),

		SMTPHost:                  strings.TrimSpace(getenv("SMTP_HOST", "")),
		SMTPPort:                  getenv("SMTP_PORT", "587"),
		SMTPUsername:              getenv("SMTP_USERNAME", ""),
		SMTPPassword:              getenv("SMTP_PASSWORD", ""),
		SMTPFrom:                  getenv("SMTP_FROM", `"Password Reset Service" <no-reply@localhost>`),
		SMTPUseTLS:                getenv("SMTP_USE_TLS", "false") == "true",
		SMTPTLSInsecureSkipVerify: getenv("SMTP_TLS_INSECURE_SKIP_VERIFY", "false") == "true",
		MailSendTimeout:           duration("MAIL_SEND_TIMEOUT", 10*time.Second),
	}
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func duration(k string, d time.Duration) time.Duration {
	v, err := time.ParseDuration(getenv(k, ""))
	if err != nil || v <= 0 {
		return d
	}
	return v
}

func integer(k string, d int) int {
	v, err := strconv.Atoi(getenv(k, ""))
	if err != nil {
		return d
	}
	return v
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
