// Package loader resolves command line inputs into one validated Settings
// value.
//
// A load is a linear pipeline: the single source is selected, its raw
// document is read or synthesized, ${NAME} placeholders in config and
// example documents are substituted, the result is decoded with defaults applied and finally validated. The
// first failing stage ends the run with one error from package configerr.
// Loads share no state, so a Loader may be used from several goroutines.
package loader
