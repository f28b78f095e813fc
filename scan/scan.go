// Package scan implements the parallel, bounded-concurrency traversal of
// a namespace's on-disk tree. Each category walker collects candidate
// paths synchronously, then streams them through a bounded-concurrency
// combinator, built on golang.org/x/sync/errgroup for the category-level
// join and cmn.Semaphore for the per-category concurrency cap.
package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Lighty-Launcher/LightyUpdater/cmn"
	"github.com/Lighty-Launcher/LightyUpdater/snapshot"
	"github.com/Lighty-Launcher/LightyUpdater/storage"
)

// BatchConfig is the [cache.batch] section: per-category scan
// concurrency caps.
type BatchConfig struct {
	Client    int
	Libraries int
	Mods      int
	Natives   int
	Assets    int
}

// Options configures a single namespace scan.
type Options struct {
	Namespace          string
	Dir                string // <base>/<namespace>
	BaseURL            string // for URLFor when Backend is nil (tests)
	Backend            storage.Backend
	Batch              BatchConfig
	ChecksumBufferSize int
	Logger             *zap.SugaredLogger
	EntryPointClass    string
	RuntimeVersion     int
	GameArgs           []string
	RuntimeArgs        []string

	// Per-category enable flags from the namespace's configuration. A
	// disabled category is not walked at all and yields the same result
	// as its directory being absent: no client record, empty record
	// lists, and nil (None) natives.
	EnableClient    bool
	EnableLibraries bool
	EnableMods      bool
	EnableNatives   bool
	EnableAssets    bool
}

// Scan runs the enabled category scanners concurrently and joins on all
// results, producing a fresh Snapshot. It fails with a scan
// structural error if the namespace directory does not exist; category
// errors are bubbled up, but individual file errors within a category
// are logged and filtered out, never failing the namespace scan.
func Scan(ctx context.Context, opt Options) (*snapshot.Snapshot, error) {
	if fi, err := os.Stat(opt.Dir); err != nil || !fi.IsDir() {
		return nil, cmn.NewScanStructuralError(opt.Namespace, fmt.Errorf("namespace directory %q not found", opt.Dir))
	}

	snap := snapshot.New()
	snap.EntryPointClass = opt.EntryPointClass
	snap.RuntimeVersion = opt.RuntimeVersion
	snap.GameArgs = opt.GameArgs
	snap.RuntimeArgs = opt.RuntimeArgs

	g, gctx := errgroup.WithContext(ctx)

	if opt.EnableClient {
		g.Go(func() error {
			rec, err := scanClient(opt)
			if err != nil {
				return err
			}
			snap.Client = rec
			return nil
		})
	}
	if opt.EnableLibraries {
		g.Go(func() error {
			recs, err := scanLibraries(gctx, opt)
			if err != nil {
				return err
			}
			snap.Libraries = recs
			return nil
		})
	}
	if opt.EnableMods {
		g.Go(func() error {
			recs, err := scanMods(gctx, opt)
			if err != nil {
				return err
			}
			snap.Mods = recs
			return nil
		})
	}
	if opt.EnableNatives {
		g.Go(func() error {
			recs, err := scanNatives(gctx, opt)
			if err != nil {
				return err
			}
			snap.Natives = recs
			return nil
		})
	}
	if opt.EnableAssets {
		g.Go(func() error {
			recs, err := scanAssets(gctx, opt)
			if err != nil {
				return err
			}
			snap.Assets = recs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func scanClient(opt Options) (*snapshot.Record, error) {
	dir := filepath.Join(opt.Dir, "client")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, cmn.NewIOError("scan.client", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jar" {
			continue
		}
		fqn := filepath.Join(dir, e.Name())
		digest, size, err := cmn.DigestFile(fqn, opt.ChecksumBufferSize)
		if err != nil {
			logWarn(opt, "scan.client: skipping unreadable file", fqn, err)
			continue
		}
		relPath := cmn.ToSlash(filepath.Join(opt.Namespace, "client", e.Name()))
		url := buildURL(opt, "client", e.Name())
		return &snapshot.Record{
			Name:    e.Name(),
			URL:     snapshot.StrPtr(url),
			RelPath: snapshot.StrPtr(relPath),
			Digest:  digest,
			Size:    size,
		}, nil
	}
	return nil, nil
}

func buildURL(opt Options, category, relUnderCategory string) string {
	key := storage.Key(opt.Namespace, cmn.ToSlash(filepath.Join(category, relUnderCategory)))
	if opt.Backend != nil {
		return opt.Backend.URLFor(key)
	}
	return opt.BaseURL + "/" + key
}

func logWarn(opt Options, msg, path string, err error) {
	if opt.Logger != nil {
		opt.Logger.Warnw(msg, "path", path, "error", err)
	}
}
