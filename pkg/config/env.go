package config

const (
	EnvStoreDriver       = "STORE_DRIVER"
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"
	EnvMySQLDSN          = "MYSQL_DSN"
	EnvMySQLMaxOpenConns = "MYSQL_MAX_OPEN_CONNS"
	EnvStoreCallTimeout  = "STORE_CALL_TIMEOUT"

	EnvRedisAddr         = "REDIS_ADDR"
	EnvRedisPassword     = "REDIS_PASSWORD"
	EnvRedisDB           = "REDIS_DB"
	EnvDirectoryCacheTTL = "DIRECTORY_CACHE_TTL"

	EnvFirebaseDatabaseURL       = "FIREBASE_DATABASE_URL"
	EnvFirebaseCredentialsFile   = "FIREBASE_CREDENTIALS_FILE"
	EnvFirebaseProfessionalsPath = "FIREBASE_PROFESSIONALS_PATH"

	EnvAllocationLockTTL     = "ALLOCATION_LOCK_TTL"
	EnvAllocationLockWait    = "ALLOCATION_LOCK_WAIT"
	EnvCountCancelledAsOpen  = "ALLOCATION_COUNT_CANCELLED_AS_OPEN"
	EnvNotificationsTopic    = "NOTIFICATIONS_TOPIC"
	EnvNotificationsDLQTopic = "NOTIFICATIONS_DLQ_TOPIC"
	EnvNotificationsGroupID  = "NOTIFICATIONS_GROUP_ID"
	EnvNotifyTimeout         = "NOTIFY_TIMEOUT"
	EnvBrevoAPIKey           = "BREVO_API_KEY"
	EnvBrevoBaseURL          = "BREVO_BASE_URL"
	EnvSenderEmail           = "SENDER_EMAIL"
	EnvSenderName            = "SENDER_NAME"
	EnvDisplayTimezone       = "DISPLAY_TIMEZONE"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
