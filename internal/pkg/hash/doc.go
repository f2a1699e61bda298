// Package hash provides keyed digests for values that must never be stored or
// compared in plaintext.
//
// OTP storage keys records by the digest of reference and code, and receipts
// bind to the digest of the reference. Lookups need the same digest for the
// same input, so only deterministic keyed hashes live here.
package hash
