// Package examples bundles ready-made settings documents that can be
// selected by name with --example.
package examples
