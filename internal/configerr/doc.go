// Package configerr holds the error taxonomy of settings loading. Every
// loader stage fails with exactly one of these types, and each renders as a
// single user-facing paragraph.
package configerr
