// Package jwt signs and parses HS512 JSON Web Tokens for arbitrary claim sets.
//
// Callers own their claims type and decide whether registered claims are
// checked by the parser or by themselves after decoding.
package jwt
