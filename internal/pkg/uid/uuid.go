package uid

import "github.com/google/uuid"

// UUID generates time-ordered UUIDv7 strings, used for receipt ids, mail
// Message-IDs and correlation ids.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

// Generate falls back to a random UUIDv4 when the v7 clock sequence cannot
// be read.
func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}

	return uuid.NewString()
}
