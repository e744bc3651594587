package utils

import "github.com/google/uuid"

// ShortIDLength is the number of id characters shown in listings
const ShortIDLength = 8

// ShortID returns the leading characters of id used as a display handle
func ShortID(id uuid.UUID) string {
	return id.String()[:ShortIDLength]
}
