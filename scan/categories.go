package scan

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Lighty-Launcher/LightyUpdater/cmn"
	"github.com/Lighty-Launcher/LightyUpdater/snapshot"
)

// scanLibraries recursively walks <ns>/libraries/, hashing .jar files
// under a semaphore of capacity opt.Batch.Libraries. The record name is
// the maven coordinate derived from the path.
func scanLibraries(ctx context.Context, opt Options) ([]snapshot.Record, error) {
	root := filepath.Join(opt.Dir, "libraries")
	cands, err := collectCandidates(root, true, ".jar")
	if err != nil {
		return nil, err
	}
	return hashCandidates(ctx, opt, cands, opt.Batch.Libraries, func(c candidate, digest string, size int64) snapshot.Record {
		coord, err := cmn.PathToMavenCoordinate(c.relUnderCategory)
		name := coord
		if err != nil {
			// A malformed maven layout still produces a usable record;
			// fall back to the filename rather than failing the scan.
			logWarn(opt, "scan.libraries: non-maven path, using filename", c.fqn, err)
			name = filepath.Base(c.fqn)
		}
		relPath := cmn.ToSlash(filepath.Join(opt.Namespace, "libraries", c.relUnderCategory))
		url := buildURL(opt, "libraries", c.relUnderCategory)
		return snapshot.Record{
			Name:    name,
			URL:     snapshot.StrPtr(url),
			RelPath: snapshot.StrPtr(relPath),
			Digest:  digest,
			Size:    size,
		}
	})
}

// scanMods is a flat (non-recursive) walk of <ns>/mods/, .jar only;
// record name is the filename.
func scanMods(ctx context.Context, opt Options) ([]snapshot.Record, error) {
	root := filepath.Join(opt.Dir, "mods")
	cands, err := collectCandidates(root, false, ".jar")
	if err != nil {
		return nil, err
	}
	return hashCandidates(ctx, opt, cands, opt.Batch.Mods, func(c candidate, digest string, size int64) snapshot.Record {
		relPath := cmn.ToSlash(filepath.Join(opt.Namespace, "mods", c.relUnderCategory))
		url := buildURL(opt, "mods", c.relUnderCategory)
		return snapshot.Record{
			Name:    c.relUnderCategory,
			URL:     snapshot.StrPtr(url),
			RelPath: snapshot.StrPtr(relPath),
			Digest:  digest,
			Size:    size,
		}
	})
}

// nativeOSDirs enumerates the three optional OS subdirectories under
// natives/.
var nativeOSDirs = []string{snapshot.OSWindows, snapshot.OSLinux, snapshot.OSMacOS}

// scanNatives runs one flat concurrent scan per OS bucket and
// concatenates the results. The final list is nil iff natives/ itself
// does not exist; otherwise it is non-nil, possibly empty.
func scanNatives(ctx context.Context, opt Options) ([]snapshot.NativeRecord, error) {
	nativesRoot := filepath.Join(opt.Dir, "natives")
	if _, err := os.Stat(nativesRoot); err != nil {
		return nil, nil // None: no natives/ directory at all
	}

	out := []snapshot.NativeRecord{} // Some([]): directory exists
	for _, osTag := range nativeOSDirs {
		root := filepath.Join(nativesRoot, osTag)
		cands, err := collectCandidates(root, false, "")
		if err != nil {
			return nil, err
		}
		recs, err := hashCandidates(ctx, opt, cands, opt.Batch.Natives, func(c candidate, digest string, size int64) snapshot.Record {
			relPath := cmn.ToSlash(filepath.Join(opt.Namespace, "natives", osTag, c.relUnderCategory))
			url := buildURL(opt, filepath.Join("natives", osTag), c.relUnderCategory)
			return snapshot.Record{
				Name:    c.relUnderCategory,
				URL:     snapshot.StrPtr(url),
				RelPath: snapshot.StrPtr(relPath),
				Digest:  digest,
				Size:    size,
			}
		})
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			out = append(out, snapshot.NativeRecord{Record: r, OS: osTag})
		}
	}
	return out, nil
}

// scanAssets recursively walks <ns>/assets/ across all file types under
// its own semaphore.
func scanAssets(ctx context.Context, opt Options) ([]snapshot.Record, error) {
	root := filepath.Join(opt.Dir, "assets")
	cands, err := collectCandidates(root, true, "")
	if err != nil {
		return nil, err
	}
	return hashCandidates(ctx, opt, cands, opt.Batch.Assets, func(c candidate, digest string, size int64) snapshot.Record {
		relPath := cmn.ToSlash(filepath.Join(opt.Namespace, "assets", c.relUnderCategory))
		url := buildURL(opt, "assets", c.relUnderCategory)
		return snapshot.Record{
			Name:    c.relUnderCategory,
			URL:     snapshot.StrPtr(url),
			RelPath: snapshot.StrPtr(relPath),
			Digest:  digest,
			Size:    size,
		}
	})
}
