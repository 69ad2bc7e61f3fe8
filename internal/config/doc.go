// Package config loads, normalizes, and validates predigt configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads optional .env files and honours
// environment fallbacks such as YOUTUBE_API_KEY and FTP_PASSWORD. The Config
// type centralizes every knob the pipeline, publisher and CLI need.
//
// A loaded Config is treated as an immutable snapshot: callers hand the values
// to components at construction time and replace the whole snapshot on reload
// rather than mutating fields in place.
package config
