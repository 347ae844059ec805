// Package settings defines the Pivot settings model together with its
// defaulting, decoding and validation rules.
//
// A Settings value is produced by Decode, completed by ApplyDefaults and
// accepted by Validate. Validation is fail-fast: the first violation is
// returned as a configerr error whose message is shown to the user as is.
package settings
