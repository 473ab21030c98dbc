// Package sanitizer normalizes customer and professional input before validation and storage.
//
// Every function is idempotent. Invalid input yields an empty value rather than an error so
// the validator layer can report it with a field name.
package sanitizer
