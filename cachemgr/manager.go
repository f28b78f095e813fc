// Package cachemgr implements the cache manager: owns the
// snapshot map, last-update timestamps (delegated to the orchestrator,
// which is the sole writer), the file LRU, the path-to-namespace cache,
// the rescan orchestrator, a background task registry, and the shared
// configuration handle.
//
// One struct owns every shared resource, constructed once at startup;
// background task bookkeeping (a counter plus a map of id -> cancel
// func) keeps the single background rescan loop individually
// cancellable and joinable during shutdown.
package cachemgr

import (
	"context"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/Lighty-Launcher/LightyUpdater/cmn"
	"github.com/Lighty-Launcher/LightyUpdater/configwatch"
	"github.com/Lighty-Launcher/LightyUpdater/events"
	"github.com/Lighty-Launcher/LightyUpdater/filelru"
	"github.com/Lighty-Launcher/LightyUpdater/nscache"
	"github.com/Lighty-Launcher/LightyUpdater/rescan"
	"github.com/Lighty-Launcher/LightyUpdater/scan"
	"github.com/Lighty-Launcher/LightyUpdater/snapshot"
	"github.com/Lighty-Launcher/LightyUpdater/storage"
)

// snapshotMap is the concurrent namespace -> *snapshot.Snapshot map.
type snapshotMap struct {
	mu   sync.RWMutex
	data map[string]*snapshot.Snapshot
}

func (m *snapshotMap) Insert(namespace string, s *snapshot.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[namespace] = s
}

func (m *snapshotMap) Get(namespace string) (*snapshot.Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.data[namespace]
	return s, ok
}

func (m *snapshotMap) Contains(namespace string) bool {
	_, ok := m.Get(namespace)
	return ok
}

func (m *snapshotMap) Delete(namespace string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, namespace)
}

// task is one registered background goroutine.
type task struct {
	id     uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager is the cache manager.
type Manager struct {
	cfgMu sync.RWMutex
	cfg   *configwatch.Config

	snapshots *snapshotMap
	lru       *filelru.Cache
	pathCache *nscache.Cache
	orch      *rescan.Orchestrator
	backend   storage.Backend
	bus       *events.Bus
	logger    *zap.SugaredLogger

	tasksMu  sync.Mutex
	tasks    map[uint64]*task
	taskSeq  atomic.Uint64
	shutdown chan struct{}
}

// New constructs a Manager from a loaded configuration. It instantiates
// the storage backend, snapshot map, path cache, and orchestrator, but
// does not start scanning -- call Initialize for that.
func New(cfg *configwatch.Config, bus *events.Bus, logger *zap.SugaredLogger) (*Manager, error) {
	backend, err := buildBackend(cfg)
	if err != nil {
		return nil, err
	}

	maxBytes := int64(cfg.Cache.MaxMemoryCacheGB * float64(1<<30))
	lruCache, err := filelru.New(maxBytes, 4096)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:       cfg,
		snapshots: &snapshotMap{data: make(map[string]*snapshot.Snapshot)},
		lru:       lruCache,
		pathCache: nscache.New(),
		backend:   backend,
		bus:       bus,
		logger:    logger,
		tasks:     make(map[uint64]*task),
		shutdown:  make(chan struct{}),
	}
	m.rebuildNamespaceCacheLocked(cfg)

	orchCfg := rescan.Config{
		PollInterval: pollIntervalFrom(cfg),
		DebounceMs:   cfg.HotReload.Files.DebounceMs,
		Logger:       logger,
	}
	m.orch = rescan.NewOrchestrator(orchCfg, m.snapshots, m, m.pathCache, bus, backend, m.cdnClient(cfg))

	return m, nil
}

func buildBackend(cfg *configwatch.Config) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case "s3":
		return storage.NewS3(storage.S3Config{
			Endpoint:  cfg.Storage.S3.Endpoint,
			Region:    cfg.Storage.S3.Region,
			Bucket:    cfg.Storage.S3.Bucket,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
			PublicURL: cfg.Storage.S3.PublicURL,
		})
	default:
		return storage.NewLocal(cfg.Server.BaseURL), nil
	}
}

// Config returns the currently active configuration pointer under the
// read lock. Hot-reload is the single exclusive writer; everything else
// reads.
func (m *Manager) Config() *configwatch.Config {
	m.cfgMu.RLock()
	defer m.cfgMu.RUnlock()
	return m.cfg
}

// SwapConfig installs a new configuration, replacing the old handle
// atomically under the write lock.
func (m *Manager) SwapConfig(cfg *configwatch.Config) {
	m.cfgMu.Lock()
	m.cfg = cfg
	m.cfgMu.Unlock()
}

// EnabledNamespaces implements rescan.NamespaceSource.
func (m *Manager) EnabledNamespaces() []string {
	cfg := m.Config()
	out := make([]string, 0, len(cfg.Servers))
	for _, sc := range cfg.EnabledNamespaces() {
		out = append(out, sc.Name)
	}
	return out
}

// ScanOptions implements rescan.NamespaceSource.
func (m *Manager) ScanOptions(namespace string) (scan.Options, bool) {
	cfg := m.Config()
	sc, ok := cfg.NamespaceByName(namespace)
	if !ok || !sc.Enabled {
		return scan.Options{}, false
	}
	return scan.Options{
		Namespace: namespace,
		Dir:       m.namespaceDir(namespace),
		BaseURL:   cfg.Server.BaseURL,
		Backend:   m.backend,
		Batch: scan.BatchConfig{
			Client:    cfg.Cache.Batch.Client,
			Libraries: cfg.Cache.Batch.Libraries,
			Mods:      cfg.Cache.Batch.Mods,
			Natives:   cfg.Cache.Batch.Natives,
			Assets:    cfg.Cache.Batch.Assets,
		},
		ChecksumBufferSize: cfg.Cache.ChecksumBufferSize,
		Logger:             m.logger,
		EntryPointClass:    sc.EntryPoint,
		RuntimeVersion:     sc.RuntimeVersion,
		GameArgs:           sc.GameArgs,
		RuntimeArgs:        sc.RuntimeArgs,
		EnableClient:       sc.EnableClient,
		EnableLibraries:    sc.EnableLibraries,
		EnableMods:         sc.EnableMods,
		EnableNatives:      sc.EnableNatives,
		EnableAssets:       sc.EnableAssets,
	}, true
}

func (m *Manager) namespaceDir(namespace string) string {
	return joinPath(m.Config().Server.BasePath, namespace)
}

// AbsPath resolves a namespace-relative path (as stored in the
// resolution index) to an absolute on-disk path, for the serve-file
// handler's fallback-to-disk step.
func (m *Manager) AbsPath(namespace, relPath string) string {
	return joinPath(m.namespaceDir(namespace), relPath)
}

// Get returns the shared snapshot handle for namespace, if present.
func (m *Manager) Get(namespace string) (*snapshot.Snapshot, bool) {
	return m.snapshots.Get(namespace)
}

// LastUpdated returns the last-update timestamp for namespace, if known.
func (m *Manager) LastUpdated(namespace string) (string, bool) {
	return m.orch.LastUpdated(namespace)
}

// PauseRescan / ResumeRescan delegate to the orchestrator.
func (m *Manager) PauseRescan()  { m.orch.Pause() }
func (m *Manager) ResumeRescan() { m.orch.Resume() }

// ForceRescan invokes the rescan action out of band, failing with
// namespace-not-found if the namespace is absent from the configuration.
// Unlike the orchestrator's own silent polls, a forced rescan announces
// itself on the bus.
func (m *Manager) ForceRescan(ctx context.Context, namespace string) error {
	if _, ok := m.ScanOptions(namespace); !ok {
		return cmn.NewNamespaceNotFoundError(namespace)
	}
	m.bus.Publish(events.Event{Kind: events.KindScanStarted, Namespace: namespace})
	return m.orch.RescanOne(ctx, namespace)
}

// RebuildNamespaceCache rebuilds the path-to-namespace cache from the
// current configuration.
func (m *Manager) RebuildNamespaceCache() {
	m.rebuildNamespaceCacheLocked(m.Config())
}

func (m *Manager) rebuildNamespaceCacheLocked(cfg *configwatch.Config) {
	dirs := make(map[string]string)
	for _, sc := range cfg.EnabledNamespaces() {
		dirs[sc.Name] = m.namespaceDir(sc.Name)
	}
	m.pathCache.Rebuild(dirs)
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	sep := "/"
	trimmedBase := base
	for len(trimmedBase) > 0 && trimmedBase[len(trimmedBase)-1] == '/' {
		trimmedBase = trimmedBase[:len(trimmedBase)-1]
	}
	return trimmedBase + sep + name
}
