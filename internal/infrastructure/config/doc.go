// Package config loads bridge configuration from the environment.
//
// Values come from environment variables, optionally seeded from a .env
// file, with defaults for everything. Domain-mapped websites are declared in
// a separate YAML or TOML file named by BRIDGE_DOMAIN_MAP.
//
//	cfg, err := config.Load(".env")
//	domains, err := config.LoadDomainMap(cfg.Bridge.DomainMapFile)
//
// Environment Variables:
//   - PORT, HOST, ALLOWED_ORIGINS, SHUTDOWN_TIMEOUT
//   - NODE_URL, NODE_API_KEY, NODE_TIMEOUT, NODE_RETRY_MAX, NODE_RATE_LIMIT, NODE_BURST, NODE_BREAKER_COOLDOWN
//   - BRIDGE_VIEW, BRIDGE_THEME, BRIDGE_CONVENTION, BRIDGE_DEFAULT_TIMEOUT, BRIDGE_GATEWAY, BRIDGE_GATEWAY_NOTICE, BRIDGE_DOMAIN_MAP
//   - SANDBOX_POOL_SIZE, SANDBOX_TIMEOUT
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
