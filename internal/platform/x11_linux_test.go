//go:build linux

package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseURIList(t *testing.T) {
	data := []byte("# comment\r\nfile:///home/me/clip%20one.mov\r\nhttps://example.com/x\r\n\r\nfile:///tmp/b.png\r\n")
	assert.Equal(t, []string{"/home/me/clip one.mov", "/tmp/b.png"}, parseURIList(data))
	assert.Empty(t, parseURIList(nil))
}

func TestParseWMClass(t *testing.T) {
	class, err := parseWMClass([]byte("keepassxc\x00KeePassXC\x00"))
	assert.NoError(t, err)
	assert.Equal(t, "KeePassXC", class)

	class, err = parseWMClass([]byte("xterm\x00"))
	assert.NoError(t, err)
	assert.Equal(t, "xterm", class)

	_, err = parseWMClass(nil)
	assert.Error(t, err)
}
