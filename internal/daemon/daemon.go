// Package daemon hosts the clipboard core: it owns the stores, drives the
// monitor and serves CLI requests, all from one controller goroutine.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/berrythewa/mediaclip/internal/assets"
	"github.com/berrythewa/mediaclip/internal/clipboard"
	"github.com/berrythewa/mediaclip/internal/config"
	"github.com/berrythewa/mediaclip/internal/ipc"
	"github.com/berrythewa/mediaclip/internal/platform"
	"github.com/berrythewa/mediaclip/internal/storage"
	"github.com/berrythewa/mediaclip/internal/thumbnail"
	"github.com/berrythewa/mediaclip/pkg/utils"
	"go.uber.org/zap"
)

// ErrStopped is returned to requests that arrive after the daemon stopped
var ErrStopped = errors.New("daemon stopped")

// Option customizes a Daemon
type Option func(*Daemon)

// WithForeground sets the frontmost-application lookup used for exclusions
func WithForeground(f clipboard.ForegroundApp) Option {
	return func(d *Daemon) { d.foreground = f }
}

// WithFrameGrabber replaces the ffmpeg frame grabber for video thumbnails
func WithFrameGrabber(g thumbnail.FrameGrabber) Option {
	return func(d *Daemon) { d.frames = g }
}

type command struct {
	fn    func() *ipc.Response
	reply chan *ipc.Response
}

// Daemon is a running mediaclip instance
type Daemon struct {
	cfg    *config.Config
	logger *zap.Logger

	clip       clipboard.Clipboard
	foreground clipboard.ForegroundApp
	frames     thumbnail.FrameGrabber

	lock      *platform.InstanceLock
	assets    *assets.Store
	usage     *storage.UsageIndex
	store     *storage.Store
	monitor   *clipboard.Monitor
	publisher *clipboard.Publisher
	routes    map[string]func(*ipc.Request) *ipc.Response

	commands  chan command
	stop      chan struct{}
	done      chan struct{} // closed when Run returns
	stopOnce  sync.Once
	closeOnce sync.Once
	ticker    *time.Ticker
	startedAt time.Time
	captured  atomic.Int64

	// bumped on every store change event, read by status
	revisions map[storage.Collection]uint64
}

// New runs the startup sequence: take the instance lock, sweep stale temp
// files, then open the asset store, the usage index and the item store, and
// build the monitor and publisher on top of backend.
func New(cfg *config.Config, logger *zap.Logger, backend clipboard.Clipboard, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if backend == nil {
		return nil, errors.New("clipboard backend is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		clip:     backend,
		frames:   thumbnail.FFmpegGrabber{Path: cfg.Thumbnail.FFmpegPath},
		commands: make(chan command),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),

		revisions: make(map[storage.Collection]uint64),
	}
	for _, opt := range opts {
		opt(d)
	}

	if err := d.start(); err != nil {
		d.Close()
		return nil, err
	}
	d.routes = d.buildRoutes()
	return d, nil
}

func (d *Daemon) start() error {
	paths := d.cfg.SystemPaths
	if paths.DataDir == "" {
		return errors.New("data directory not configured")
	}
	if err := paths.EnsureDirs(); err != nil {
		return err
	}

	lock, err := platform.AcquireLock(paths.DataDir)
	if err != nil {
		return err
	}
	d.lock = lock

	assetStore, err := assets.New(paths.DataDir, d.logger.Named("assets"))
	if err != nil {
		return err
	}
	d.assets = assetStore

	d.sweepTempFiles()

	usage, err := storage.OpenUsageIndex(filepath.Join(paths.DataDir, storage.UsageFile), d.logger.Named("usage"))
	if err != nil {
		return err
	}
	d.usage = usage

	store, err := storage.Open(storage.Options{
		Dir:            paths.DataDir,
		Assets:         d.assets,
		Usage:          d.usage,
		MaxHistory:     d.cfg.History.MaxCount,
		SortByLastUsed: d.cfg.History.SortByLastUsed,
		Logger:         d.logger.Named("store"),
	})
	if err != nil {
		return err
	}
	d.store = store

	d.monitor = clipboard.NewMonitor(clipboard.MonitorOptions{
		Clipboard:        d.clip,
		Foreground:       d.foreground,
		Store:            d.store,
		Assets:           d.assets,
		Thumbnails:       thumbnail.New(d.cfg.Thumbnail.MaxSize, d.cfg.Thumbnail.Quality, d.frames),
		Capture:          d.cfg.Capture,
		HandleDuplicates: d.cfg.History.HandleDuplicates,
		Interval:         d.cfg.PollInterval(),
		Logger:           d.logger.Named("monitor"),
	})
	d.publisher = &clipboard.Publisher{
		Clipboard: d.clip,
		Marker:    d.monitor,
		Assets:    d.assets,
	}
	return nil
}

// sweepTempFiles removes leftovers of interrupted atomic writes and copies
func (d *Daemon) sweepTempFiles() {
	dirs := []string{
		d.cfg.SystemPaths.DataDir,
		d.assets.Dir(assets.AreaImages),
		d.assets.Dir(assets.AreaThumbnails),
		d.assets.Dir(assets.AreaMedia),
	}
	total := 0
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		n, err := utils.RemoveAllTempFiles(dir, ".*", ".tmp")
		if err != nil {
			d.logger.Warn("Failed to sweep temp files", zap.String("dir", dir), zap.Error(err))
		}
		total += n
	}
	if total > 0 {
		d.logger.Info("Removed stale temp files", zap.Int("count", total))
	}
}

// Run serves IPC requests and polls the clipboard until ctx is cancelled or
// a shutdown request arrives. All store mutations happen on this goroutine.
func (d *Daemon) Run(ctx context.Context) error {
	defer close(d.done)
	defer d.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.startedAt = time.Now()
	if err := d.monitor.Prime(); err != nil {
		d.logger.Warn("Failed to prime clipboard monitor", zap.Error(err))
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- ipc.ListenAndServe(ctx, d.cfg.SystemPaths.SocketPath, d.Execute, d.logger.Named("ipc"))
	}()

	events, unsubscribe := d.store.Subscribe()
	defer unsubscribe()

	d.ticker = time.NewTicker(d.cfg.PollInterval())
	defer d.ticker.Stop()

	d.logger.Info("Daemon started",
		zap.Int("pid", os.Getpid()),
		zap.String("data_dir", d.cfg.SystemPaths.DataDir),
		zap.Duration("interval", d.cfg.PollInterval()))

	for {
		select {
		case <-ctx.Done():
			<-serveErr
			d.logger.Info("Daemon stopping", zap.Error(context.Cause(ctx)))
			return nil
		case <-d.stop:
			cancel()
			<-serveErr
			d.logger.Info("Daemon stopping on request")
			return nil
		case err := <-serveErr:
			return fmt.Errorf("IPC server stopped: %w", err)
		case <-d.ticker.C:
			d.poll(ctx)
		case ev := <-events:
			d.revisions[ev.Collection]++
			d.logger.Debug("Store changed", zap.String("collection", string(ev.Collection)))
		case cmd := <-d.commands:
			cmd.reply <- cmd.fn()
		}
	}
}

// Stop asks Run to return
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() { close(d.stop) })
}

func (d *Daemon) poll(ctx context.Context) {
	entry, err := d.monitor.PollOnce(ctx)
	if err != nil {
		d.logger.Debug("Clipboard poll failed", zap.Error(err))
		return
	}
	if entry != nil {
		d.captured.Add(1)
	}
}

// Execute runs one request on the controller goroutine and waits for its
// response. It is the IPC handler of the daemon.
func (d *Daemon) Execute(ctx context.Context, req *ipc.Request) *ipc.Response {
	route, ok := d.routes[req.Command]
	if !ok {
		return ipc.Errorf("unknown command %q", req.Command)
	}
	d.logger.Debug("IPC request", zap.String("command", req.Command))

	cmd := command{
		fn:    func() *ipc.Response { return route(req) },
		reply: make(chan *ipc.Response, 1),
	}
	select {
	case d.commands <- cmd:
	case <-ctx.Done():
		return ipc.Errorf("%v", ErrStopped)
	case <-d.done:
		return ipc.Errorf("%v", ErrStopped)
	}
	select {
	case resp := <-cmd.reply:
		return resp
	case <-ctx.Done():
		return ipc.Errorf("%v", ErrStopped)
	}
}

// Close releases everything New acquired. Run calls it on return.
func (d *Daemon) Close() {
	d.closeOnce.Do(func() {
		if d.usage != nil {
			if err := d.usage.Close(); err != nil {
				d.logger.Warn("Failed to close usage index", zap.Error(err))
			}
		}
		if d.lock != nil {
			if err := d.lock.Release(); err != nil {
				d.logger.Warn("Failed to release instance lock", zap.Error(err))
			}
		}
	})
}
