// Package config loads the steemsign configuration from an optional .env file and the
// process environment.
package config
