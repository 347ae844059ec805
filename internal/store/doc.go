// Package store holds the settings currently served over HTTP. Reloads
// replace the whole value.
package store
