// Package config loads the soundq configuration: a YAML file read with
// viper, an optional .env file, and SOUNDQ_* environment overrides. Watch
// reloads the file when it changes on disk.
package config
