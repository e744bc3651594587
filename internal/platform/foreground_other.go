//go:build !linux

package platform

import "go.uber.org/zap"

// NoopForeground never reports a frontmost application
type NoopForeground struct{}

// NewForeground returns the frontmost-application lookup for this platform
func NewForeground(logger *zap.Logger) *NoopForeground {
	return &NoopForeground{}
}

func (NoopForeground) Frontmost() (string, error) { return "", nil }

func (NoopForeground) Close() {}
