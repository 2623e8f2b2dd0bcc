// Package config manages application configuration for the questline server.
//
// Configuration is layered: built-in Defaults, then an optional YAML file
// named by CONFIG_FILE, then environment variables. A .env file is loaded
// into the environment by cmd/server before Load runs.
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS)
//   - DatabaseConfig: SurrealDB connection settings
//   - JWTConfig: shared HS256 secret, issuer, lifetime
//   - ChatConfig: socket limits, heartbeat and per-connection throttling
//   - RateLimitConfig: HTTP rate limiting
//
// # Environment Variables
//
//	SERVER_PORT, SERVER_ENV, LOG_LEVEL, CORS_ALLOWED_ORIGINS
//	DB_HOST, DB_PORT, DB_NAMESPACE, DB_DATABASE, DB_USER, DB_PASSWORD
//	JWT_SECRET (or JWT_SECRET_FILE), JWT_ISSUER, JWT_EXPIRATION_MINS
//	CHAT_MAX_MESSAGE_LENGTH, CHAT_SEND_BUFFER, CHAT_WRITE_TIMEOUT,
//	CHAT_PING_INTERVAL, CHAT_READ_LIMIT, CHAT_ORIGIN_PATTERNS,
//	CHAT_EVENTS_PER_MINUTE, CHAT_EVENT_BURST
//	RATE_LIMIT_ENABLED, RATE_LIMIT_RATE, RATE_LIMIT_WINDOW, RATE_LIMIT_BURST
package config
