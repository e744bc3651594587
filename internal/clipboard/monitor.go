package clipboard

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/berrythewa/mediaclip/internal/assets"
	"github.com/berrythewa/mediaclip/internal/config"
	"github.com/berrythewa/mediaclip/internal/thumbnail"
	"github.com/berrythewa/mediaclip/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultPollInterval is used when MonitorOptions.Interval is zero
const DefaultPollInterval = 500 * time.Millisecond

// HistoryStore is the part of the item store the monitor writes to
type HistoryStore interface {
	Insert(entry types.HistoryEntry) error
	Delete(id uuid.UUID) bool
	FindText(kind types.ContentKind, text string) (types.HistoryEntry, bool)
}

// MonitorOptions configures a Monitor
type MonitorOptions struct {
	Clipboard        Clipboard
	Foreground       ForegroundApp // nil disables the exclusion check
	Store            HistoryStore
	Assets           *assets.Store
	Thumbnails       *thumbnail.Generator // nil disables thumbnails
	Capture          config.CaptureConfig
	HandleDuplicates bool
	Interval         time.Duration
	Logger           *zap.Logger
}

// Monitor turns clipboard changes into history entries
type Monitor struct {
	clipboard  Clipboard
	foreground ForegroundApp
	store      HistoryStore
	assets     *assets.Store
	thumbs     *thumbnail.Generator
	interval   time.Duration
	logger     *zap.Logger

	settingsMu       sync.RWMutex
	capture          config.CaptureConfig
	handleDuplicates bool

	lastCount  int64
	primed     bool
	selfChange atomic.Bool
}

// NewMonitor creates a monitor. Call Prime before the first PollOnce so that
// content already on the clipboard is not captured.
func NewMonitor(opts MonitorOptions) *Monitor {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	foreground := opts.Foreground
	if foreground == nil {
		foreground = NoForeground
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Monitor{
		clipboard:        opts.Clipboard,
		foreground:       foreground,
		store:            opts.Store,
		assets:           opts.Assets,
		thumbs:           opts.Thumbnails,
		interval:         interval,
		logger:           logger,
		capture:          opts.Capture,
		handleDuplicates: opts.HandleDuplicates,
	}
}

// Prime records the current change counter as already seen
func (m *Monitor) Prime() error {
	count, err := m.clipboard.ChangeCount()
	if err != nil {
		return fmt.Errorf("failed to read change count: %w", err)
	}
	m.lastCount = count
	m.primed = true
	return nil
}

// MarkSelfChange suppresses capture of the next observed change
func (m *Monitor) MarkSelfChange() {
	m.selfChange.Store(true)
}

// UpdateSettings replaces the capture settings used by subsequent polls
func (m *Monitor) UpdateSettings(capture config.CaptureConfig, handleDuplicates bool) {
	m.settingsMu.Lock()
	defer m.settingsMu.Unlock()
	m.capture = capture
	m.handleDuplicates = handleDuplicates
}

func (m *Monitor) settings() (config.CaptureConfig, bool) {
	m.settingsMu.RLock()
	defer m.settingsMu.RUnlock()
	return m.capture, m.handleDuplicates
}

// Run polls until ctx is cancelled
func (m *Monitor) Run(ctx context.Context) error {
	if !m.primed {
		if err := m.Prime(); err != nil {
			m.logger.Warn("Failed to prime clipboard monitor", zap.Error(err))
		}
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("Clipboard monitor started", zap.Duration("interval", m.interval))
	for {
		select {
		case <-ctx.Done():
			m.logger.Debug("Stopping clipboard monitor")
			return ctx.Err()
		case <-ticker.C:
			if _, err := m.PollOnce(ctx); err != nil {
				m.logger.Debug("Clipboard poll failed", zap.Error(err))
			}
		}
	}
}

// PollOnce checks the clipboard once and captures a new entry if the content
// changed. It returns the inserted entry, or nil when nothing was captured.
// Capture failures are logged and never returned; the error only reports
// that the clipboard itself could not be queried.
func (m *Monitor) PollOnce(ctx context.Context) (*types.HistoryEntry, error) {
	count, err := m.clipboard.ChangeCount()
	if err != nil {
		return nil, fmt.Errorf("failed to read change count: %w", err)
	}
	if m.primed && count == m.lastCount {
		return nil, nil
	}
	m.lastCount = count
	m.primed = true

	if m.selfChange.CompareAndSwap(true, false) {
		m.logger.Debug("Skipping self-originated clipboard change")
		return nil, nil
	}

	capture, handleDuplicates := m.settings()

	if app, err := m.foreground.Frontmost(); err != nil {
		m.logger.Debug("Failed to resolve frontmost application", zap.Error(err))
	} else if capture.IsExcluded(app) {
		m.logger.Debug("Ignoring change from excluded application", zap.String("app", app))
		return nil, nil
	}

	contents, err := m.clipboard.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read clipboard: %w", err)
	}

	detection, ok := Classify(contents, capture)
	if !ok {
		return nil, nil
	}

	entry, ok := m.buildEntry(ctx, detection)
	if !ok {
		return nil, nil
	}

	if handleDuplicates && entry.Kind.IsText() {
		if existing, found := m.store.FindText(entry.Kind, entry.TextContent); found {
			m.store.Delete(existing.ID)
		}
	}

	if err := m.store.Insert(entry); err != nil {
		m.logger.Warn("Failed to insert history entry", zap.Error(err))
		return nil, nil
	}

	m.logger.Debug("Captured clipboard entry",
		zap.String("id", entry.ID.String()),
		zap.String("kind", string(entry.Kind)))
	return &entry, nil
}

func (m *Monitor) buildEntry(ctx context.Context, d Detection) (types.HistoryEntry, bool) {
	switch d.Kind {
	case types.KindPlainText, types.KindRichText:
		return types.NewTextEntry(d.Kind, d.Text), true
	case types.KindVideo:
		return m.captureVideo(ctx, d.FilePath)
	case types.KindImage:
		if d.FilePath != "" {
			return m.captureImageFile(d.FilePath)
		}
		return m.captureImage(d.Bitmap, imageExtension(d.Bitmap))
	}
	return types.HistoryEntry{}, false
}

func (m *Monitor) captureVideo(ctx context.Context, src string) (types.HistoryEntry, bool) {
	if m.assets == nil {
		return types.HistoryEntry{}, false
	}
	ref, err := m.assets.StoreVideo(src)
	if err != nil {
		m.logger.Warn("Failed to store video", zap.String("source", src), zap.Error(err))
		return types.HistoryEntry{}, false
	}
	path := m.assets.Path(ref)

	var thumb string
	if m.thumbs != nil {
		data, err := m.thumbs.FromVideoFile(ctx, path)
		if err != nil {
			m.logger.Debug("No video thumbnail", zap.String("path", path), zap.Error(err))
		} else {
			thumb = m.storeThumbnail(data)
		}
	}
	return types.NewVideoEntry(path, thumb), true
}

func (m *Monitor) captureImageFile(src string) (types.HistoryEntry, bool) {
	data, err := os.ReadFile(src)
	if err != nil {
		m.logger.Warn("Failed to read image file", zap.String("source", src), zap.Error(err))
		return types.HistoryEntry{}, false
	}
	return m.captureImage(data, extension(src))
}

func (m *Monitor) captureImage(data []byte, ext string) (types.HistoryEntry, bool) {
	if m.assets == nil || len(data) == 0 {
		return types.HistoryEntry{}, false
	}
	ref, err := m.assets.StoreImage(data, ext)
	if err != nil {
		m.logger.Warn("Failed to store image", zap.Error(err))
		return types.HistoryEntry{}, false
	}

	var thumb string
	if m.thumbs != nil {
		thumbData, err := m.thumbs.FromImageBytes(data)
		if err != nil {
			m.logger.Debug("No image thumbnail", zap.String("image", ref.Name), zap.Error(err))
		} else {
			thumb = m.storeThumbnail(thumbData)
		}
	}
	return types.NewImageEntry(ref.Name, thumb), true
}

func (m *Monitor) storeThumbnail(data []byte) string {
	ref, err := m.assets.StoreThumbnail(data)
	if err != nil {
		m.logger.Warn("Failed to store thumbnail", zap.Error(err))
		return ""
	}
	return ref.Name
}
