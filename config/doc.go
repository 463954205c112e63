// Package config loads service configuration from a YAML file, an optional
// .env file and the process environment using viper and godotenv.
//
// Environment variables override file values. With an env prefix of
// "SCRIBE", SCRIBE_SCHEDULER_LOCAL_POOL_SIZE sets scheduler.local_pool_size.
package config
