package configwatch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Lighty-Launcher/LightyUpdater/cmn"
	"github.com/Lighty-Launcher/LightyUpdater/events"
)

// CacheUpdater is the narrow slice of cachemgr.Manager the hot-reload
// coordinator needs, kept as an interface so configwatch does not
// import cachemgr (which would create an import cycle, since cachemgr
// owns the configuration handle this package writes to).
type CacheUpdater interface {
	Config() *Config
	SwapConfig(cfg *Config)
	PauseRescan()
	ResumeRescan()
	RebuildNamespaceCache()
	ForceRescan(ctx context.Context, namespace string) error
}

// Watcher monitors the configuration document path and performs the
// coordinated pause/diff/swap/rebuild/resume sequence on every settled
// change.
type Watcher struct {
	path       string
	debounceMs int
	// reloadChanSize bounds the reload-request channel between debounce
	// expiry and reload dispatch (config key
	// cache.config_reload_channel_size). The channel is expected idle;
	// a full channel coalesces further requests into the queued one.
	reloadChanSize int
	cache          CacheUpdater
	bus            *events.Bus
	logger         *zap.SugaredLogger

	done chan struct{}
}

func NewWatcher(path string, debounceMs, reloadChanSize int, cache CacheUpdater, bus *events.Bus, logger *zap.SugaredLogger) *Watcher {
	if reloadChanSize <= 0 {
		reloadChanSize = 1
	}
	return &Watcher{
		path:           path,
		debounceMs:     debounceMs,
		reloadChanSize: reloadChanSize,
		cache:          cache,
		bus:            bus,
		logger:         logger,
		done:           make(chan struct{}),
	}
}

// Stop signals the watcher's Run loop to exit at its next suspension
// point.
func (w *Watcher) Stop() { close(w.done) }

// Run watches the config document, debounces change bursts, and applies
// the nine-step reload sequence on every settled change.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return err
	}

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	dur := time.Duration(w.debounceMs) * time.Millisecond
	reloadCh := make(chan struct{}, w.reloadChanSize)

	for {
		select {
		case <-w.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(dur)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logWarn("configwatch: watcher error", "error", err)

		case <-debounce.C:
			select {
			case reloadCh <- struct{}{}:
			default: // a reload is already queued; coalesce
			}

		case <-reloadCh:
			w.reload(ctx)
		}
	}
}

func (w *Watcher) logWarn(msg string, args ...interface{}) {
	if w.logger != nil {
		w.logger.Warnw(msg, args...)
	}
}

// reload implements the nine-step reload sequence end to end. Parse
// failures log and keep the old configuration; on success the
// namespace diff drives directory bootstrap and targeted rescans.
func (w *Watcher) reload(ctx context.Context) {
	newCfg, err := Load(w.path)
	if err != nil {
		w.logWarn("configwatch: parse failed, keeping previous configuration", "path", w.path, "error", err)
		if w.bus != nil {
			w.bus.Publish(events.Event{Kind: events.KindConfigRejected, Err: cmn.NewConfigParseError(w.path, err)})
		}
		return
	}
	if newCfg.DebounceConflict() {
		w.logWarn("configwatch: legacy file_watcher_debounce_ms and hot-reload.files.debounce_ms disagree; using hot-reload.files.debounce_ms",
			"legacy", newCfg.HotReload.FilesLegacyDebounceMs, "current", newCfg.HotReload.Files.DebounceMs)
	}

	// Step 1.
	w.cache.PauseRescan()

	// Steps 2-3: read old namespaces through the current handle and
	// determine the added/removed/modified sets.
	oldCfg := w.cache.Config()
	added, removed, modified := diffNamespaces(oldCfg, newCfg)

	// Step 4: swap.
	w.cache.SwapConfig(newCfg)

	// Step 5.
	w.cache.RebuildNamespaceCache()

	// Step 6.
	w.cache.ResumeRescan()

	if w.bus != nil {
		w.bus.Publish(events.Event{Kind: events.KindConfigReloaded})
	}

	// Step 7: modified namespaces, best-effort force_rescan. Locks are
	// already dropped before this I/O.
	for _, name := range modified {
		if err := w.cache.ForceRescan(ctx, name); err != nil {
			w.logWarn("configwatch: force rescan failed for modified namespace", "namespace", name, "error", err)
		}
	}

	// Step 8: added + enabled namespaces get their directory tree
	// bootstrapped, then a best-effort force_rescan.
	for _, name := range added {
		sc, ok := newCfg.NamespaceByName(name)
		if !ok || !sc.Enabled {
			continue
		}
		dir := filepath.Join(basePathOf(newCfg), name)
		if err := cmn.EnsureNamespaceTree(dir); err != nil {
			w.logWarn("configwatch: failed to create namespace directory tree", "namespace", name, "error", err)
			continue
		}
		if err := w.cache.ForceRescan(ctx, name); err != nil {
			w.logWarn("configwatch: force rescan failed for added namespace", "namespace", name, "error", err)
		}
		if w.bus != nil {
			w.bus.Publish(events.Event{Kind: events.KindNamespaceAdded, Namespace: name})
		}
	}

	// Step 9: removed namespaces need no work of their own; their
	// snapshot simply becomes unreachable once the rescan loop stops
	// iterating them (they're no longer in EnabledNamespaces()).
	for _, name := range removed {
		if w.bus != nil {
			w.bus.Publish(events.Event{Kind: events.KindNamespaceRemoved, Namespace: name})
		}
	}
}

func basePathOf(cfg *Config) string {
	return cfg.Server.BasePath
}

// diffNamespaces determines the added/removed/modified sets.
func diffNamespaces(oldCfg, newCfg *Config) (added, removed, modified []string) {
	oldByName := make(map[string]ServerConfig, len(oldCfg.Servers))
	for _, sc := range oldCfg.Servers {
		oldByName[sc.Name] = sc
	}
	newByName := make(map[string]ServerConfig, len(newCfg.Servers))
	for _, sc := range newCfg.Servers {
		newByName[sc.Name] = sc
	}

	for name, nsc := range newByName {
		osc, existed := oldByName[name]
		if !existed {
			added = append(added, name)
			continue
		}
		if perFieldChanged(osc, nsc) {
			modified = append(modified, name)
		}
	}
	for name := range oldByName {
		if _, stillPresent := newByName[name]; !stillPresent {
			removed = append(removed, name)
		}
	}
	return added, removed, modified
}

// perFieldChanged is the disjunction over every namespace field that
// should trigger a targeted rescan when it changes.
func perFieldChanged(a, b ServerConfig) bool {
	if a.Enabled != b.Enabled {
		return true
	}
	if a.Loader != b.Loader || a.LoaderVersion != b.LoaderVersion {
		return true
	}
	if a.TargetVersion != b.TargetVersion {
		return true
	}
	if a.EntryPoint != b.EntryPoint {
		return true
	}
	if a.RuntimeVersion != b.RuntimeVersion {
		return true
	}
	if a.EnableClient != b.EnableClient || a.EnableLibraries != b.EnableLibraries ||
		a.EnableMods != b.EnableMods || a.EnableNatives != b.EnableNatives || a.EnableAssets != b.EnableAssets {
		return true
	}
	if !stringSliceEqual(a.GameArgs, b.GameArgs) || !stringSliceEqual(a.RuntimeArgs, b.RuntimeArgs) {
		return true
	}
	return false
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
