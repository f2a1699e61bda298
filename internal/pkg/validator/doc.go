// Package validator checks struct tags on request inputs and module settings.
//
// Errors are reported per field using the wire name of the field (json tag,
// then mapstructure tag), so the same messages serve HTTP clients and
// configuration errors at startup.
package validator
