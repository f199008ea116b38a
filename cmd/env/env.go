package env

// Prefix is the prefix of all feemeta environment variables
const Prefix = "FEEMETA_"

const (
	// DBURLSuffix is the Postgres connection string variable suffix
	DBURLSuffix = "DB_URL"

	// RedisURLSuffix is the Redis connection URL variable suffix
	RedisURLSuffix = "REDIS_URL"
)
