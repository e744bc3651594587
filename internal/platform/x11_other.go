//go:build !linux

package platform

import (
	"context"
	"errors"
)

func readExtraTargets(ctx context.Context) (extraTargets, error) {
	return extraTargets{}, nil
}

func writeFileRefTarget(path string) error {
	return errors.New("file references not supported on this platform")
}
