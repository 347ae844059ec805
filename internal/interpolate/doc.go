// Package interpolate substitutes ${NAME} placeholders in a raw settings
// document before it is parsed.
package interpolate
