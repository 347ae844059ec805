// Package watch triggers settings reloads when the source file changes.
package watch
