package candidate

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ID derives the stable candidate identifier for a file. When a name was
// extracted, the ID hashes normalized name + phone digits so the same person
// keeps the same ID across re-submissions of the same document; otherwise it
// falls back to the file's content hash. Either way the result is a pure
// function of its inputs, so re-running a file always yields the same ID.
func ID(name, phone, fileHashHex string) string {
	source := strings.ToLower(strings.TrimSpace(name))
	if source != "" {
		source += "|" + digitsOnly(phone)
	} else {
		source = fileHashHex
	}
	sum := sha256.Sum256([]byte(source))
	return strings.ToUpper(hex.EncodeToString(sum[:])[:8])
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
