// File: pkg/utils/uuid_test.go

package utils

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestShortID(t *testing.T) {
	id := uuid.MustParse("6f9619ff-8b86-d011-b42d-00c04fc964ff")
	assert.Equal(t, "6f9619ff", ShortID(id))
	assert.True(t, strings.HasPrefix(id.String(), ShortID(id)))
}

func TestHashContent(t *testing.T) {
	assert.Equal(t, "", HashContent(nil))
	assert.Equal(t, HashContent([]byte("a")), HashContent([]byte("a")))
	assert.NotEqual(t, HashContent([]byte("a")), HashContent([]byte("b")))
	assert.Len(t, HashContent([]byte("abc")), 64)
}
