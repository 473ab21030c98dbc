package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"
	_ "time/tzdata"

	"carwash/pkg/client"
	"carwash/pkg/logger"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

type Config struct {
	Service string

	StoreDriver       string
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration
	MySQLDSN          string
	MySQLMaxOpenConns int
	StoreCallTimeout  time.Duration

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	DirectoryCacheTTL time.Duration

	FirebaseDatabaseURL       string
	FirebaseCredentialsFile   string
	FirebaseProfessionalsPath string

	AllocationLockTTL    time.Duration
	AllocationLockWait   time.Duration
	CountCancelledAsOpen bool

	NotificationsTopic    string
	NotificationsDLQTopic string
	NotificationsGroupID  string
	NotifyTimeout         time.Duration
	BrevoAPIKey           string
	BrevoBaseURL          string
	SenderEmail           string
	SenderName            string
	DisplayTimezone       string

	Port     string
	LogLevel string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

// Load reads configuration from the environment (and an optional config.yaml), validates it
// for the given service and exits on error.
func Load(serviceName string) *Config {
	cfg := FromViper(newViper(), serviceName)
	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    logger.JSON,
		AddSource: true,
		Service:   serviceName,
	})
	cfg.Client = client.NewClient()

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	// A missing config file is fine, the environment is authoritative.
	_ = v.ReadInConfig()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(EnvStoreDriver, DefaultStoreDriver)
	v.SetDefault(EnvMongoURI, DefaultMongoURI)
	v.SetDefault(EnvMongoDatabaseName, DefaultMongoDatabaseName)
	v.SetDefault(EnvMongoConnTimeout, DefaultMongoConnTimeout)
	v.SetDefault(EnvMySQLMaxOpenConns, DefaultMySQLMaxOpenConns)
	v.SetDefault(EnvStoreCallTimeout, DefaultStoreCallTimeout)

	v.SetDefault(EnvRedisDB, DefaultRedisDB)
	v.SetDefault(EnvDirectoryCacheTTL, DefaultDirectoryCacheTTL)

	v.SetDefault(EnvFirebaseProfessionalsPath, DefaultFirebaseProfessionalsPath)

	v.SetDefault(EnvAllocationLockTTL, DefaultAllocationLockTTL)
	v.SetDefault(EnvAllocationLockWait, DefaultAllocationLockWait)
	v.SetDefault(EnvCountCancelledAsOpen, DefaultCountCancelledAsOpen)
	v.SetDefault(EnvNotificationsTopic, DefaultNotificationsTopic)
	v.SetDefault(EnvNotificationsGroupID, DefaultNotificationsGroupID)
	v.SetDefault(EnvNotifyTimeout, DefaultNotifyTimeout)
	v.SetDefault(EnvBrevoBaseURL, DefaultBrevoBaseURL)
	v.SetDefault(EnvSenderName, DefaultSenderName)
	v.SetDefault(EnvDisplayTimezone, DefaultDisplayTimezone)

	v.SetDefault(EnvPort, DefaultPort)
	v.SetDefault(EnvLogLevel, DefaultLogLevel)
	v.SetDefault(EnvRateLimitRequests, DefaultRateLimitRequests)
	v.SetDefault(EnvRateLimitWindow, DefaultRateLimitWindow)
	v.SetDefault(EnvRequestTimeout, DefaultRequestTimeout)
	v.SetDefault(EnvIdempotencyTTL, DefaultIdempotencyTTL)
	v.SetDefault(EnvMaxRequestSize, DefaultMaxRequestSize)
	v.SetDefault(EnvReadTimeout, DefaultReadTimeout)
	v.SetDefault(EnvWriteTimeout, DefaultWriteTimeout)
	v.SetDefault(EnvIdleTimeout, DefaultIdleTimeout)
	v.SetDefault(EnvShutdownTimeout, DefaultShutdownTimeout)
}

// FromViper maps a populated viper instance onto Config without validating it.
func FromViper(v *viper.Viper, serviceName string) *Config {
	return &Config{
		Service: serviceName,

		StoreDriver:       v.GetString(EnvStoreDriver),
		MongoURI:          v.GetString(EnvMongoURI),
		MongoDatabaseName: v.GetString(EnvMongoDatabaseName),
		MongoConnTimeout:  v.GetDuration(EnvMongoConnTimeout),
		MySQLDSN:          v.GetString(EnvMySQLDSN),
		MySQLMaxOpenConns: v.GetInt(EnvMySQLMaxOpenConns),
		StoreCallTimeout:  v.GetDuration(EnvStoreCallTimeout),

		RedisAddr:         v.GetString(EnvRedisAddr),
		RedisPassword:     v.GetString(EnvRedisPassword),
		RedisDB:           v.GetInt(EnvRedisDB),
		DirectoryCacheTTL: v.GetDuration(EnvDirectoryCacheTTL),

		FirebaseDatabaseURL:       v.GetString(EnvFirebaseDatabaseURL),
		FirebaseCredentialsFile:   v.GetString(EnvFirebaseCredentialsFile),
		FirebaseProfessionalsPath: v.GetString(EnvFirebaseProfessionalsPath),

		AllocationLockTTL:    v.GetDuration(EnvAllocationLockTTL),
		AllocationLockWait:   v.GetDuration(EnvAllocationLockWait),
		CountCancelledAsOpen: v.GetBool(EnvCountCancelledAsOpen),

		NotificationsTopic:    v.GetString(EnvNotificationsTopic),
		NotificationsDLQTopic: v.GetString(EnvNotificationsDLQTopic),
		NotificationsGroupID:  v.GetString(EnvNotificationsGroupID),
		NotifyTimeout:         v.GetDuration(EnvNotifyTimeout),
		BrevoAPIKey:           v.GetString(EnvBrevoAPIKey),
		BrevoBaseURL:          v.GetString(EnvBrevoBaseURL),
		SenderEmail:           v.GetString(EnvSenderEmail),
		SenderName:            v.GetString(EnvSenderName),
		DisplayTimezone:       v.GetString(EnvDisplayTimezone),

		Port:     v.GetString(EnvPort),
		LogLevel: v.GetString(EnvLogLevel),

		RateLimitRequests: v.GetInt(EnvRateLimitRequests),
		RateLimitWindow:   v.GetDuration(EnvRateLimitWindow),

		RequestTimeout: v.GetDuration(EnvRequestTimeout),
		IdempotencyTTL: v.GetDuration(EnvIdempotencyTTL),
		MaxRequestSize: v.GetInt(EnvMaxRequestSize),

		ReadTimeout:     v.GetDuration(EnvReadTimeout),
		WriteTimeout:    v.GetDuration(EnvWriteTimeout),
		IdleTimeout:     v.GetDuration(EnvIdleTimeout),
		ShutdownTimeout: v.GetDuration(EnvShutdownTimeout),
	}
}

// SetStore connects the backend selected by StoreDriver.
func (cfg *Config) SetStore() {
	switch cfg.StoreDriver {
	case StoreDriverMySQL:
		cfg.Client.SetMySQL(cfg.Log, cfg.MySQLDSN, cfg.MySQLMaxOpenConns)
	default:
		cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
	}
}

// SetRedis is a no-op when REDIS_ADDR is unset; the directory then runs uncached.
func (cfg *Config) SetRedis() {
	if cfg.RedisAddr == "" {
		cfg.Log.Info("Redis address not set, directory cache disabled")
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

func (cfg *Config) SetFirebase() {
	cfg.Client.SetFirebase(cfg.Log, cfg.FirebaseDatabaseURL, cfg.FirebaseCredentialsFile)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StoreDriver {
	case StoreDriverMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	case StoreDriverMySQL:
		if cfg.MySQLDSN == "" {
			errors = append(errors, "MySQLDSN cannot be empty when StoreDriver is mysql")
		} else if dsn, err := mysql.ParseDSN(cfg.MySQLDSN); err != nil {
			errors = append(errors, fmt.Sprintf("MySQLDSN is invalid: %v", err))
		} else if !dsn.ParseTime {
			errors = append(errors, "MySQLDSN must set parseTime=true")
		}
		if cfg.MySQLMaxOpenConns <= 0 {
			errors = append(errors, fmt.Sprintf("MySQLMaxOpenConns must be positive, got: %d", cfg.MySQLMaxOpenConns))
		}
	default:
		errors = append(errors, fmt.Sprintf("StoreDriver must be one of [mongo, mysql], got: %s", cfg.StoreDriver))
	}

	if cfg.StoreCallTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("StoreCallTimeout must be positive, got: %s", cfg.StoreCallTimeout))
	}
	if cfg.RedisAddr != "" && cfg.DirectoryCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("DirectoryCacheTTL must be positive when Redis is enabled, got: %s", cfg.DirectoryCacheTTL))
	}
	if cfg.AllocationLockTTL <= 0 {
		errors = append(errors, fmt.Sprintf("AllocationLockTTL must be positive, got: %s", cfg.AllocationLockTTL))
	}
	if cfg.AllocationLockWait < 0 {
		errors = append(errors, fmt.Sprintf("AllocationLockWait cannot be negative, got: %s", cfg.AllocationLockWait))
	}
	if cfg.AllocationLockWait >= cfg.AllocationLockTTL {
		errors = append(errors, fmt.Sprintf("AllocationLockWait (%s) must be shorter than AllocationLockTTL (%s)", cfg.AllocationLockWait, cfg.AllocationLockTTL))
	}
	// The lock is held across the availability read and the commit, each bounded by StoreCallTimeout.
	if cfg.StoreCallTimeout > 0 && cfg.AllocationLockTTL <= 2*cfg.StoreCallTimeout {
		errors = append(errors, fmt.Sprintf("AllocationLockTTL (%s) must be longer than twice StoreCallTimeout (%s)", cfg.AllocationLockTTL, cfg.StoreCallTimeout))
	}
	if cfg.NotificationsTopic == "" {
		errors = append(errors, "NotificationsTopic cannot be empty")
	}
	if cfg.NotifyTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("NotifyTimeout must be positive, got: %s", cfg.NotifyTimeout))
	}
	if _, err := time.LoadLocation(cfg.DisplayTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("DisplayTimezone must be a valid IANA zone, got: %s", cfg.DisplayTimezone))
	}

	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}
	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	switch cfg.Service {
	case ServiceBookings:
		if _, err := url.ParseRequestURI(cfg.FirebaseDatabaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("FirebaseDatabaseURL must be a valid URL, got: %q", cfg.FirebaseDatabaseURL))
		}
		if cfg.FirebaseProfessionalsPath == "" {
			errors = append(errors, "FirebaseProfessionalsPath cannot be empty")
		}
	case ServiceNotifier:
		if cfg.BrevoAPIKey == "" {
			errors = append(errors, "BrevoAPIKey cannot be empty")
		}
		if cfg.SenderEmail == "" {
			errors = append(errors, "SenderEmail cannot be empty")
		}
		if cfg.NotificationsGroupID == "" {
			errors = append(errors, "NotificationsGroupID cannot be empty")
		}
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"store_driver", cfg.StoreDriver,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mysql_dsn_set", cfg.MySQLDSN != "",
		"store_call_timeout", cfg.StoreCallTimeout,
		"redis_addr", cfg.RedisAddr,
		"directory_cache_ttl", cfg.DirectoryCacheTTL,
		"firebase_database_url", cfg.FirebaseDatabaseURL,
		"firebase_professionals_path", cfg.FirebaseProfessionalsPath,
		"allocation_lock_ttl", cfg.AllocationLockTTL,
		"allocation_lock_wait", cfg.AllocationLockWait,
		"count_cancelled_as_open", cfg.CountCancelledAsOpen,
		"notifications_topic", cfg.NotificationsTopic,
		"notifications_dlq_topic", cfg.NotificationsDLQTopic,
		"notify_timeout", cfg.NotifyTimeout,
		"brevo_key_set", cfg.BrevoAPIKey != "",
		"sender_email", cfg.SenderEmail,
		"display_timezone", cfg.DisplayTimezone,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
