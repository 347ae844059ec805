// Package source turns the mutually exclusive source flags into a single
// Descriptor. Conflicts are detected here and nowhere else.
package source
