// Package idgen generates execution identifiers. Callers treat them as opaque strings.
package idgen
