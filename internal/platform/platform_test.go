package platform

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, img, nil))

	out, err := toPNG(jpg.Bytes())
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), decoded.Bounds())

	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))
	same, err := toPNG(pngBuf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, pngBuf.Bytes(), same, "png passes through untouched")

	_, err = toPNG([]byte("not an image"))
	assert.Error(t, err)
}

func TestAcquireLock(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireLock(dir)
	require.NoError(t, err)

	pid, err := ReadLockPID(dir)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	_, err = AcquireLock(dir)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, lock.Release())
	assert.NoFileExists(t, filepath.Join(dir, LockFileName))

	again, err := AcquireLock(dir)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestReadLockPIDInvalid(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadLockPID(dir)
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(filepath.Join(dir, LockFileName), []byte("garbage"), 0644))
	_, err = ReadLockPID(dir)
	assert.ErrorContains(t, err, "invalid PID")

	require.NoError(t, os.WriteFile(filepath.Join(dir, LockFileName), []byte(strconv.Itoa(42)+"\n"), 0644))
	pid, err := ReadLockPID(dir)
	require.NoError(t, err)
	assert.Equal(t, 42, pid)
}

func TestDaemonizeRefusesWhenRunning(t *testing.T) {
	dir := t.TempDir()
	lock, err := AcquireLock(dir)
	require.NoError(t, err)
	defer lock.Release()

	_, err = Daemonize("/bin/true", nil, dir, filepath.Join(dir, "logs", "daemon.out"))
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}
