package cachemgr

import (
	"context"
	"fmt"
	"time"

	"github.com/Lighty-Launcher/LightyUpdater/cdn"
	"github.com/Lighty-Launcher/LightyUpdater/cmn"
	"github.com/Lighty-Launcher/LightyUpdater/configwatch"
	"github.com/Lighty-Launcher/LightyUpdater/events"
	"github.com/Lighty-Launcher/LightyUpdater/rescan"
	"github.com/Lighty-Launcher/LightyUpdater/snapshot"
)

func pollIntervalFrom(cfg *configwatch.Config) time.Duration {
	if cfg.Cache.RescanIntervalSecs <= 0 {
		return 0
	}
	return time.Duration(cfg.Cache.RescanIntervalSecs) * time.Second
}

// cdnClient builds a CDN purge client from whichever of [cdn] or
// [cloudflare] is configured, or nil if neither is.
func (m *Manager) cdnClient(cfg *configwatch.Config) rescan.CDNPurger {
	if cfg.Cloudflare.APIToken != "" && cfg.Cloudflare.ZoneID != "" {
		return cdn.New(cfg.Cloudflare.BaseURL, cfg.Cloudflare.APIToken, cfg.Cloudflare.ZoneID, m.logger)
	}
	if cfg.CDN.APIToken != "" && cfg.CDN.ZoneID != "" {
		return cdn.New("", cfg.CDN.APIToken, cfg.CDN.ZoneID, m.logger)
	}
	return nil
}

// Initialize runs the initial all-namespaces scan (if cache.auto_scan is
// enabled) and primes the file LRU, emitting an "initial scan started"
// event first.
func (m *Manager) Initialize(ctx context.Context) error {
	cfg := m.Config()
	if !cfg.Cache.Enabled || !cfg.Cache.AutoScan {
		return nil
	}

	m.bus.Publish(events.Event{Kind: events.KindInitialScanStarted})

	for _, ns := range m.EnabledNamespaces() {
		if err := m.orch.RescanOne(ctx, ns); err != nil {
			m.logger.Warnw("initial scan failed for namespace", "namespace", ns, "error", err)
			continue
		}
		m.primeLRU(ctx, ns)
	}
	return nil
}

// primeLRU warms the file LRU with the namespace's hot files (the
// client jar and mods, the bodies launchers request first) so the first
// wave of downloads after startup is served from memory. Files at or
// above the streaming threshold are never buffered, so they are skipped
// here too.
func (m *Manager) primeLRU(ctx context.Context, namespace string) {
	snap, ok := m.Get(namespace)
	if !ok {
		return
	}
	threshold := int64(m.Config().Server.StreamingThresholdMB) * 1024 * 1024
	if threshold <= 0 {
		return
	}

	records := make([]snapshot.Record, 0, len(snap.Mods)+1)
	if snap.Client != nil {
		records = append(records, *snap.Client)
	}
	records = append(records, snap.Mods...)

	for _, r := range records {
		if r.RelPath == nil || r.Size >= threshold {
			continue
		}
		rel := cmn.StripLeadingNamespace(*r.RelPath)
		abs := m.AbsPath(namespace, rel)
		if _, err := m.GetFile(ctx, namespace, rel, abs, threshold); err != nil {
			m.logger.Debugw("lru prime skipped file", "namespace", namespace, "path", rel, "error", err)
		}
	}
}

// StartAutoRescan spawns the orchestrator's driver loop in the
// background and registers its handle in the task registry.
func (m *Manager) StartAutoRescan(ctx context.Context) {
	taskCtx, cancel := context.WithCancel(ctx)
	id := m.taskSeq.Add(1)
	done := make(chan struct{})

	m.tasksMu.Lock()
	m.tasks[id] = &task{id: id, cancel: cancel, done: done}
	m.tasksMu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				err := cmn.NewJoinError("cachemgr.auto_rescan", fmt.Errorf("panic: %v", r))
				m.logger.Errorw("rescan orchestrator panicked", "error", err)
				m.bus.Publish(events.Event{Kind: events.KindRescanFailed, Err: err})
			}
		}()
		if err := m.orch.Run(taskCtx); err != nil && taskCtx.Err() == nil {
			m.logger.Warnw("rescan orchestrator exited with error", "error", err)
		}
	}()
}

// Shutdown sends the stop signal, cancels and joins every registered
// background task, and shuts down the file LRU. It never hangs even if
// a task panics mid-run: each task's goroutine recovers the panic into a
// join error (logged and published, never rethrown) and closes its done
// channel via defer, so this function's join loop always completes.
func (m *Manager) Shutdown() {
	close(m.shutdown)
	m.orch.Stop()

	m.tasksMu.Lock()
	tasks := make([]*task, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, t)
	}
	m.tasksMu.Unlock()

	for _, t := range tasks {
		t.cancel()
		<-t.done
	}

	m.lru.Shutdown()
}
