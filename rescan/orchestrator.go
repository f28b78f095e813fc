// Package rescan implements the rescan orchestrator: a polling or
// filesystem-event-driven driver loop around the single unit-testable
// action rescanOne, with a pause/resume flag and per-namespace work
// dispatch through a path-to-namespace cache.
//
// Pause/resume is an atomic bool around a state machine, never a mutex
// held across an await point. Loop cancellation uses a broadcast "done"
// channel the loop selects on at every suspension point.
package rescan

import (
	"context"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/Lighty-Launcher/LightyUpdater/events"
	"github.com/Lighty-Launcher/LightyUpdater/nscache"
	"github.com/Lighty-Launcher/LightyUpdater/scan"
	"github.com/Lighty-Launcher/LightyUpdater/snapshot"
	"github.com/Lighty-Launcher/LightyUpdater/storage"
)

// SnapshotUpdater is the narrow interface the orchestrator publishes
// through, so it can update the cache manager's snapshot map without a
// back-reference to the manager itself.
type SnapshotUpdater interface {
	Insert(namespace string, snap *snapshot.Snapshot)
	Get(namespace string) (*snapshot.Snapshot, bool)
	Contains(namespace string) bool
}

// NamespaceSource resolves the current enabled namespace set and each
// one's scan options, so the orchestrator never holds its own copy of
// the configuration.
type NamespaceSource interface {
	EnabledNamespaces() []string
	ScanOptions(namespace string) (scan.Options, bool)
}

// CDNPurger matches cdn.Client's one orchestrator-visible method.
type CDNPurger interface {
	PurgeKey(ctx context.Context, key string) error
}

// Config bundles the orchestrator's tunables.
type Config struct {
	// PollInterval > 0 selects polling mode; == 0 selects event mode.
	PollInterval time.Duration
	DebounceMs   int
	Logger       *zap.SugaredLogger
}

// Orchestrator owns the pause flag and runs one of the two driver loops.
type Orchestrator struct {
	cfg       Config
	updater   SnapshotUpdater
	nsSource  NamespaceSource
	pathCache *nscache.Cache
	bus       *events.Bus
	backend   storage.Backend
	cdn       CDNPurger // nil if CDN purge is not configured

	paused atomic.Bool
	done   chan struct{}

	lastUpdated lastUpdatedStore
}

// NewOrchestrator wires the orchestrator's collaborators. cdnPurger may
// be nil when no [cdn]/[cloudflare] section is configured.
func NewOrchestrator(cfg Config, updater SnapshotUpdater, nsSource NamespaceSource, pathCache *nscache.Cache, bus *events.Bus, backend storage.Backend, cdnPurger CDNPurger) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		updater:   updater,
		nsSource:  nsSource,
		pathCache: pathCache,
		bus:       bus,
		backend:   backend,
		cdn:       cdnPurger,
		done:      make(chan struct{}),
	}
}

// Pause implements the pause contract: after it
// returns, no new rescan begins until Resume is called. SeqCst on the
// write establishes the happens-before edge callers rely on.
func (o *Orchestrator) Pause() { o.paused.Store(true) }

// Resume clears the pause flag.
func (o *Orchestrator) Resume() { o.paused.Store(false) }

// IsPaused reads the flag with Relaxed-equivalent semantics: it's a
// liveness check for the loop, not a linearization point.
func (o *Orchestrator) IsPaused() bool { return o.paused.Load() }

// LastUpdated returns the last-update timestamp string recorded for
// namespace, if any.
func (o *Orchestrator) LastUpdated(namespace string) (string, bool) {
	return o.lastUpdated.get(namespace)
}

// Stop signals both driver loops to exit at their next suspension point.
func (o *Orchestrator) Stop() { close(o.done) }

// RescanOne is the single unit-testable action both driver loops
// dispatch. See rescan_one.go.
func (o *Orchestrator) RescanOne(ctx context.Context, namespace string) error {
	return o.rescanOne(ctx, namespace)
}

func (o *Orchestrator) publish(ev events.Event) {
	if o.bus != nil {
		o.bus.Publish(ev)
	}
}

func (o *Orchestrator) logWarn(msg string, args ...interface{}) {
	if o.cfg.Logger != nil {
		o.cfg.Logger.Warnw(msg, args...)
	}
}

func (o *Orchestrator) logInfo(msg string, args ...interface{}) {
	if o.cfg.Logger != nil {
		o.cfg.Logger.Infow(msg, args...)
	}
}

// diffKeyFor builds the JSON-document purge key for a namespace: "<namespace>.json", matching the resolver's own
// "GET /{ns}.json" route.
func diffKeyFor(namespace string) string {
	return namespace + ".json"
}
