// Package api exposes the loaded settings over a small read-only HTTP API.
package api
