// Package config loads dram's settings.
//
// # Resolution order
//
//  1. Built-in defaults (Default)
//  2. The config file: an explicit path, or ~/.config/dram/config.toml
//  3. Overrides from flags and DRAM_* environment variables (Config.With)
//
// A missing config file is not an error. Empty values at any layer leave the
// previous layer's value in place.
//
// # File format
//
// TOML by default. A path ending in .yaml or .yml is read as YAML with the same
// keys:
//
//	catalog = "~/data/whiskey_data.csv"
//	service_url = "http://localhost:5000/predict"
//	request_timeout = "10s"
//	default_max_price = 1000
//	unbounded_price = "infinity"   # infinity | null | omit | number
//	unbounded_value = 1e9          # sent when unbounded_price = "number"
//	log_level = "info"
//	log_format = "console"         # console | json
//	log_file = "~/.local/state/dram/dram.log"
//	metrics_addr = ""              # e.g. "127.0.0.1:9464"; empty disables
//	theme = "Nightfox"
//
// Tilde expansion is applied to log_file. The catalog value is passed to
// catalog.Load unchanged, which does its own expansion and also accepts URLs.
//
// Validate collects every problem it finds into one error.
package config
