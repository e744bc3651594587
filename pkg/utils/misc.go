package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent returns the hex sha256 of data; empty input hashes to ""
func HashContent(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
