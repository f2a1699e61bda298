package hash

import (
	"strconv"
	"strings"
)

// Composite digests parts as one value. Each part is length-prefixed so
// ("ab", "c") and ("a", "bc") never collide.
func Composite(h Hash, parts ...string) (string, error) {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(strconv.Itoa(len(p)))
		sb.WriteByte(':')
		sb.WriteString(p)
	}

	sum, err := h.Hash(sb.String())
	if err != nil {
		return "", err
	}

	return string(sum), nil
}
