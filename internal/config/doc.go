// Package config loads the cadence runtime configuration.
//
// # Overview
//
// Configuration comes from an optional TOML file plus three environment
// variables. A missing file is not an error; every field has a default.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/cadence/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. Apply CADENCE_ACTIVE_ENV, CADENCE_CONSOLE_LOGGER and CADENCE_API_URL
//
// Environment values that do not parse (for example CADENCE_CONSOLE_LOGGER=maybe)
// are ignored rather than failing startup.
//
// # Profiles
//
// Two profiles exist, STAGING (default) and PRODUCTION. Each names the
// service base URL and the public URL this process reports as its hostname
// in log records. An unknown profile name selects STAGING.
//
// # TOML Format
//
//	active_env = "STAGING"
//	console_logger = false
//	api_url = ""                         # overrides the profile base_url
//	log_file = "~/.server_logs/logger.logs"
//	log_timezone = "Asia/Kolkata"
//	session_file = "~/.config/cadence/session.toml"
//	listen_addr = "127.0.0.1:3000"
//
//	[profiles.PRODUCTION]
//	base_url = "https://scheduler.internal:8000"
//	public_url = "https://dashboard.internal"
//
// Tilde expansion is performed on log_file and session_file.
package config
