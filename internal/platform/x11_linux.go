//go:build linux

package platform

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"strings"

	"github.com/berrythewa/mediaclip/internal/clipboard"
)

// X11 clipboard selection and the targets read beside text and images
const (
	clipboardSelection = "clipboard"

	targetURIList = "text/uri-list"
	targetHTML    = "text/html"
	targetRTF     = "text/rtf"
)

// readExtraTargets asks xclip for file references and rich text
func readExtraTargets(ctx context.Context) (extraTargets, error) {
	var extra extraTargets
	if !isX11Available() {
		return extra, nil
	}

	targets, err := getX11Content(ctx, "TARGETS")
	if err != nil {
		return extra, err
	}
	available := make(map[string]bool)
	for _, t := range strings.Fields(string(targets)) {
		available[t] = true
	}

	if available[targetURIList] {
		data, err := getX11Content(ctx, targetURIList)
		if err != nil {
			return extra, err
		}
		extra.fileRefs = parseURIList(data)
	}

	switch {
	case available[targetRTF]:
		data, err := getX11Content(ctx, targetRTF)
		if err != nil {
			return extra, err
		}
		extra.rich, extra.richFormat = data, clipboard.FormatRTF
	case available[targetHTML]:
		data, err := getX11Content(ctx, targetHTML)
		if err != nil {
			return extra, err
		}
		extra.rich, extra.richFormat = data, clipboard.FormatHTML
	}
	return extra, nil
}

// writeFileRefTarget publishes path as a one-entry uri-list
func writeFileRefTarget(path string) error {
	if !isX11Available() {
		return errors.New("xclip not found")
	}
	uri := (&url.URL{Scheme: "file", Path: path}).String()
	return setX11Content(targetURIList, []byte(uri+"\r\n"))
}

// getX11Content reads one target of the clipboard selection using xclip
func getX11Content(ctx context.Context, target string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "xclip", "-selection", clipboardSelection, "-t", target, "-o")
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			// Empty clipboard or target not offered
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read X11 clipboard target %s: %w", target, err)
	}
	return output, nil
}

// setX11Content writes content under one target using xclip
func setX11Content(target string, content []byte) error {
	cmd := exec.Command("xclip", "-selection", clipboardSelection, "-t", target, "-i")
	cmd.Stdin = bytes.NewReader(content)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to write X11 clipboard: %w", err)
	}
	return nil
}

// isX11Available checks if X11 clipboard tools are available
func isX11Available() bool {
	_, err := exec.LookPath("xclip")
	return err == nil
}

// parseURIList returns the local paths of a text/uri-list payload
func parseURIList(data []byte) []string {
	var paths []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		u, err := url.Parse(line)
		if err != nil || u.Scheme != "file" || u.Path == "" {
			continue
		}
		paths = append(paths, u.Path)
	}
	return paths
}
