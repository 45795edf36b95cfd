package configs

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

var (
	JWTSecret string
	JWTTTL    time.Duration

	AppBaseURL  string
	AppTimezone string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
	MailDryRun   bool

	MailWorkers      int
	MailQueueSize    int
	MailMaxAttempts  int
	MailRetryBackoff time.Duration

	ChooseDateDays         int
	ChooseDateReminderCron string

	AdminEmail    string
	AdminPassword string
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ .env not found, using system environment")
		} else {
			log.Println("✅ .env loaded")
		}
	} else {
		log.Println("🚀 Running in Railway, using system environment")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	JWTTTL = GetEnvDuration("JWT_TTL", 24*time.Hour)

	AppBaseURL = strings.TrimRight(GetEnv("APP_BASE_URL", "http://localhost:3000"), "/")
	AppTimezone = GetEnv("APP_TIMEZONE", "America/Sao_Paulo")

	SMTPHost = GetEnv("SMTP_HOST", "localhost")
	SMTPPort = GetEnvInt("SMTP_PORT", 587)
	SMTPUser = GetEnv("SMTP_USER")
	SMTPPassword = GetEnv("SMTP_PASSWORD")
	MailFrom = GetEnv("MAIL_FROM", "ShareBook <contato@sharebook.com.br>")
	MailDryRun = GetEnvBool("MAIL_DRY_RUN", false)

	MailWorkers = GetEnvInt("MAIL_WORKERS", 2)
	MailQueueSize = GetEnvInt("MAIL_QUEUE_SIZE", 256)
	MailMaxAttempts = GetEnvInt("MAIL_MAX_ATTEMPTS", 3)
	MailRetryBackoff = GetEnvDuration("MAIL_RETRY_BACKOFF", 2*time.Second)

	ChooseDateDays = GetEnvInt("CHOOSE_DATE_DAYS", 5)
	ChooseDateReminderCron = GetEnv("CHOOSE_DATE_REMINDER_CRON", "0 8 * * *")

	AdminEmail = GetEnv("ADMIN_EMAIL")
	AdminPassword = GetEnv("ADMIN_PASSWORD")

	if JWTSecret == "" {
		log.Println("❌ JWT_SECRET is not set!")
	} else {
		log.Println("✅ JWT_SECRET loaded.")
	}
	if MailDryRun {
		log.Println("✉️ MAIL_DRY_RUN active, e-mails are only logged")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func GetEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func GetEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// GetEnvDuration accepts Go durations ("90s", "2m") or a bare number of seconds.
func GetEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

// DatabaseDSN builds the postgres URL from DATABASE_URL or the DB_* parts.
func DatabaseDSN() string {
	if url := strings.TrimSpace(os.Getenv("DATABASE_URL")); url != "" {
		return url
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=sharebook",
		GetEnv("DB_USER", "postgres"),
		GetEnv("DB_PASSWORD"),
		GetEnv("DB_HOST", "localhost"),
		GetEnv("DB_PORT", "5432"),
		GetEnv("DB_NAME", "sharebook"),
		GetEnv("DB_SSLMODE", "disable"),
	)
}

// =======================
// GORM LOGGER CUSTOM
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger() gormLogger.Interface {
	level := gormLogger.Warn
	if GetEnvBool("DB_LOG_QUERIES", false) {
		level = gormLogger.Info
	}
	return &GormLogger{
		SlowThreshold: GetEnvDuration("DB_SLOW_THRESHOLD", 200*time.Millisecond),
		LogLevel:      level,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	cp := *l
	cp.LogLevel = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		log.Printf("[INFO] "+msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		log.Printf("[WARN] "+msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		log.Printf("[ERROR] "+msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	switch {
	case err != nil && l.LogLevel >= gormLogger.Error:
		log.Printf("[ERROR] %s | %v | %s | %d rows | %s", file, err, elapsed, rows, sql)
	case elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		log.Printf("[SLOW SQL] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	case l.LogLevel >= gormLogger.Info:
		log.Printf("[QUERY] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	}
}
