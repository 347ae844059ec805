// Package application wires the settings store, HTTP handlers, router and
// server together, and owns settings reloads. It keeps the main package
// focused on CLI parsing and orchestration.
package application
