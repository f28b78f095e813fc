package rescan

import (
	"context"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Lighty-Launcher/LightyUpdater/cmn"
	"github.com/Lighty-Launcher/LightyUpdater/diffengine"
	"github.com/Lighty-Launcher/LightyUpdater/events"
	"github.com/Lighty-Launcher/LightyUpdater/scan"
)

// rescanOne implements the nine-step rescan action: scan, diff against
// the currently published snapshot, sync storage, publish, and emit a
// lifecycle event. It is the single action both the polling and
// event-driven loops dispatch, and is safe to call directly for a forced
// rescan.
func (o *Orchestrator) rescanOne(ctx context.Context, namespace string) error {
	opt, ok := o.nsSource.ScanOptions(namespace)
	if !ok {
		return cmn.NewNamespaceNotFoundError(namespace)
	}

	// Step 1: scan (silent -- no per-call lifecycle events here; the
	// caller of RescanOne decides whether to announce "scan started").
	next, err := scan.Scan(ctx, opt)
	if err != nil {
		o.logWarn("rescan: scan failed", "namespace", namespace, "error", err)
		o.publish(events.Event{Kind: events.KindRescanFailed, Namespace: namespace, Err: err})
		return err
	}

	// Step 2: read current snapshot.
	old, hadOld := o.updater.Get(namespace)

	// Step 3: diff.
	var diff diffengine.Diff
	if hadOld {
		diff = diffengine.Compute(old, next)
	} else {
		diff = diffengine.Compute(nil, next)
	}

	// Step 4: an empty diff still bumps last_updated, since the rescan
	// itself ran to completion even though nothing on disk had changed.
	if diff.IsEmpty() {
		o.lastUpdated.set(namespace, time.Now())
		o.publish(events.Event{Kind: events.KindCacheUnchanged, Namespace: namespace})
		return nil
	}

	// Step 5: remote storage sync, parallel upload/delete, partial
	// failures logged only.
	if o.backend != nil && o.backend.IsRemote() {
		o.syncRemote(ctx, namespace, diff)
	}

	// Step 6: build or apply the resolution index.
	if !hadOld {
		next.BuildResolutionIndex()
	} else {
		diffengine.Apply(diff, next)
	}

	// Step 7: publish and record timestamp.
	o.updater.Insert(namespace, next)
	o.lastUpdated.set(namespace, time.Now())

	// Step 8: CDN purge, best effort.
	if o.cdn != nil {
		go func() {
			if err := o.cdn.PurgeKey(context.Background(), diffKeyFor(namespace)); err != nil {
				o.publish(events.Event{Kind: events.KindCDNPurgeFailed, Namespace: namespace, Err: err})
			}
		}()
	}

	// Step 9: lifecycle event.
	if !hadOld {
		o.publish(events.Event{Kind: events.KindCacheNew, Namespace: namespace})
	} else {
		o.publish(events.Event{Kind: events.KindCacheUpdated, Namespace: namespace})
	}
	return nil
}

// syncRemote uploads every added/modified file and deletes every
// removed one in parallel, logging partial failures without blocking
// snapshot publication -- local disk remains the source of truth
// regardless of remote sync outcome.
func (o *Orchestrator) syncRemote(ctx context.Context, namespace string, diff diffengine.Diff) {
	opt, ok := o.nsSource.ScanOptions(namespace)
	if !ok {
		return
	}

	g, _ := errgroup.WithContext(ctx)
	for _, fc := range append(append([]diffengine.FileChange{}, diff.Added...), diff.Modified...) {
		fc := fc
		g.Go(func() error {
			if fc.RelPath == "" {
				return nil
			}
			local := localPathFor(opt, fc.RelPath)
			key := namespacedKey(namespace, fc.RelPath)
			if _, err := o.backend.Upload(ctx, local, key); err != nil {
				o.logWarn("rescan: upload failed", "namespace", namespace, "key", key, "error", err)
			}
			return nil
		})
	}
	for _, fc := range diff.Removed {
		fc := fc
		g.Go(func() error {
			if fc.RelPath == "" {
				return nil
			}
			key := namespacedKey(namespace, fc.RelPath)
			if err := o.backend.Delete(ctx, key); err != nil {
				o.logWarn("rescan: delete failed", "namespace", namespace, "key", key, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait() // errors are already logged inline; never bubbled
}

// localPathFor resolves a namespace-rooted relative path
// ("<ns>/<category>/...") back to its absolute location on disk, given
// the namespace's own scan directory ("<base>/<ns>").
func localPathFor(opt scan.Options, namespaceRootedRelPath string) string {
	base := filepath.Dir(opt.Dir)
	return filepath.Join(base, filepath.FromSlash(namespaceRootedRelPath))
}

// namespacedKey returns the object-store key for a namespace-rooted
// relative path. The key format is identical to the relative
// path already carried on the FileChange, so no re-prefixing is needed.
func namespacedKey(_ string, namespaceRootedRelPath string) string {
	return namespaceRootedRelPath
}
