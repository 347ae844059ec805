// Package config resolves the runtime options of the settings server from
// environment variables and CLI flags with precedence: CLI flags >
// Environment variables > Defaults. Settings documents themselves are
// handled by package loader.
package config
