package config

import "time"

const (
	StoreDriverMongo = "mongo"
	StoreDriverMySQL = "mysql"

	ServiceBookings = "bookings"
	ServiceNotifier = "notifier"
	JobMigrate      = "migrate"
)

const (
	DefaultStoreDriver       = StoreDriverMongo
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "carwash"
	DefaultMongoConnTimeout  = 10 * time.Second
	DefaultMySQLMaxOpenConns = 25
	DefaultStoreCallTimeout  = 3 * time.Second

	DefaultRedisDB           = 0
	DefaultDirectoryCacheTTL = 30 * time.Second

	DefaultFirebaseProfessionalsPath = "professionals"

	DefaultAllocationLockTTL    = 15 * time.Second
	DefaultAllocationLockWait   = 2 * time.Second
	DefaultCountCancelledAsOpen = true
	DefaultNotificationsTopic   = "booking-notifications"
	DefaultNotificationsGroupID = "carwash-notifier"
	DefaultNotifyTimeout        = 5 * time.Second
	DefaultBrevoBaseURL         = "https://api.brevo.com"
	DefaultSenderName           = "CarWash Service"
	DefaultDisplayTimezone      = "Asia/Kolkata"

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100
)
