package hash

// Hash produces deterministic digests and verifies plaintext against them.
type Hash interface {
	// Hash returns the digest of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether hashed is the digest of str.
	Verify(hashed, str string) bool
}
