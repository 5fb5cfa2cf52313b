package config

import (
	"errors"
	"io/fs"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Timing    TimingConfig
	Scheduler SchedulerConfig
	Queue     QueueConfig
	Exports   ExportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TimingConfig holds the default college day used to build the period grid.
// Generation requests may override any field.
type TimingConfig struct {
	DayStart           string
	DayEnd             string
	LunchStart         string
	LunchDuration      int
	IncludeShortBreak  bool
	ShortBreakDuration int
	PeriodLength       int
	Days               int
}

// SchedulerConfig tunes the placement search and candidate evaluation.
type SchedulerConfig struct {
	Candidates           int
	RetryBudget          int
	BatchDailyCap        int
	FacultyDefaultMaxDay int
	FacultyDefaultMaxWk  int
	Workers              int
	GenerationTimeout    time.Duration
	ProposalTTL          time.Duration
	CacheProposals       bool
}

// QueueConfig configures the asynchronous generation worker pool.
type QueueConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// ExportsConfig controls where the CLI writes rendered timetables.
type ExportsConfig struct {
	StorageDir string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Timing = TimingConfig{
		DayStart:           v.GetString("COLLEGE_START_TIME"),
		DayEnd:             v.GetString("COLLEGE_END_TIME"),
		LunchStart:         v.GetString("LUNCH_BREAK_START_TIME"),
		LunchDuration:      v.GetInt("LUNCH_BREAK_DURATION"),
		IncludeShortBreak:  v.GetBool("INCLUDE_SHORT_BREAK"),
		ShortBreakDuration: v.GetInt("SHORT_BREAK_DURATION"),
		PeriodLength:       v.GetInt("PERIOD_LENGTH"),
		Days:               v.GetInt("SCHEDULE_DAYS"),
	}

	workers := v.GetInt("GENERATOR_WORKERS")
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	cfg.Scheduler = SchedulerConfig{
		Candidates:           v.GetInt("TIMETABLE_CANDIDATES"),
		RetryBudget:          v.GetInt("PLACEMENT_RETRY_BUDGET"),
		BatchDailyCap:        v.GetInt("BATCH_DAILY_CAP"),
		FacultyDefaultMaxDay: v.GetInt("FACULTY_DEFAULT_MAX_DAY"),
		FacultyDefaultMaxWk:  v.GetInt("FACULTY_DEFAULT_MAX_WEEK"),
		Workers:              workers,
		GenerationTimeout:    parseDuration(v.GetString("GENERATION_TIMEOUT"), 30*time.Second),
		ProposalTTL:          parseDuration(v.GetString("PROPOSAL_TTL"), 30*time.Minute),
		CacheProposals:       v.GetBool("ENABLE_PROPOSAL_CACHE"),
	}

	cfg.Queue = QueueConfig{
		Workers:    v.GetInt("GENERATION_QUEUE_WORKERS"),
		MaxRetries: v.GetInt("GENERATION_QUEUE_RETRIES"),
		RetryDelay: parseDuration(v.GetString("GENERATION_QUEUE_RETRY_DELAY"), time.Second),
	}

	cfg.Exports = ExportsConfig{
		StorageDir: v.GetString("EXPORTS_STORAGE_DIR"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "smart_timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("COLLEGE_START_TIME", "09:00")
	v.SetDefault("COLLEGE_END_TIME", "16:30")
	v.SetDefault("LUNCH_BREAK_START_TIME", "12:15")
	v.SetDefault("LUNCH_BREAK_DURATION", 60)
	v.SetDefault("INCLUDE_SHORT_BREAK", false)
	v.SetDefault("SHORT_BREAK_DURATION", 10)
	v.SetDefault("PERIOD_LENGTH", 45)
	v.SetDefault("SCHEDULE_DAYS", 6)

	v.SetDefault("TIMETABLE_CANDIDATES", 3)
	v.SetDefault("PLACEMENT_RETRY_BUDGET", 100)
	v.SetDefault("BATCH_DAILY_CAP", 6)
	v.SetDefault("FACULTY_DEFAULT_MAX_DAY", 6)
	v.SetDefault("FACULTY_DEFAULT_MAX_WEEK", 20)
	v.SetDefault("GENERATOR_WORKERS", 0)
	v.SetDefault("GENERATION_TIMEOUT", "30s")
	v.SetDefault("PROPOSAL_TTL", "30m")
	v.SetDefault("ENABLE_PROPOSAL_CACHE", false)

	v.SetDefault("GENERATION_QUEUE_WORKERS", 2)
	v.SetDefault("GENERATION_QUEUE_RETRIES", 1)
	v.SetDefault("GENERATION_QUEUE_RETRY_DELAY", "1s")

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
