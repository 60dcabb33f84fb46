// Package config loads the smart door client and simulator settings.
//
// Values are layered: built-in defaults, then a YAML file, then
// environment variables (SMARTDOOR_*, optionally read from a .env file),
// then command-line flags that were explicitly set.
package config
