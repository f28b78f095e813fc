package rescan

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Run starts the configured driver loop and blocks until Stop is called
// or ctx is cancelled. Polling mode is selected when PollInterval > 0;
// event mode when it is 0.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.cfg.PollInterval > 0 {
		return o.runPolling(ctx)
	}
	return o.runEventDriven(ctx)
}

// runPolling re-fires a repeating timer of the configured period. At
// each tick, if not paused, every enabled namespace is rescanned in
// turn.
func (o *Orchestrator) runPolling(ctx context.Context) error {
	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if o.IsPaused() {
				continue
			}
			for _, ns := range o.nsSource.EnabledNamespaces() {
				if err := o.rescanOne(ctx, ns); err != nil {
					o.logWarn("rescan: namespace scan failed", "namespace", ns, "error", err)
				}
			}
		}
	}
}

// runEventDriven registers a recursive filesystem watcher on every
// enabled namespace directory. Incoming events are batched: each event
// path resolves to its owning namespace via the path cache and is added
// to a pending set; a debounce timer resets on every event; when the
// timer fires with no further events, every pending namespace is
// rescanned once and the set is cleared.
//
// A paused event loop keeps debouncing but never dispatches a rescan.
func (o *Orchestrator) runEventDriven(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, ns := range o.nsSource.EnabledNamespaces() {
		if opt, ok := o.nsSource.ScanOptions(ns); ok {
			if err := addRecursive(watcher, opt.Dir); err != nil {
				o.logWarn("rescan: failed to watch namespace directory", "namespace", ns, "error", err)
			}
		}
	}

	pending := make(map[string]struct{})
	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	debounceDur := time.Duration(o.cfg.DebounceMs) * time.Millisecond

	for {
		select {
		case <-o.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ns, found := o.pathCache.FindNamespace(ev.Name); found {
				pending[ns] = struct{}{}
			}
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(debounceDur)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			o.logWarn("rescan: watcher error", "error", err)

		case <-debounce.C:
			if o.IsPaused() {
				continue
			}
			for ns := range pending {
				if err := o.rescanOne(ctx, ns); err != nil {
					o.logWarn("rescan: namespace scan failed", "namespace", ns, "error", err)
				}
			}
			pending = make(map[string]struct{})
		}
	}
}
