// Package diffengine computes granular file-level diffs between two
// snapshots and applies them to a snapshot's resolution index.
// The algorithm follows a compute-then-apply shape, specialized to the
// five fixed record categories instead of a generic bucket listing.
package diffengine

import "github.com/Lighty-Launcher/LightyUpdater/snapshot"

// Category identifies which of the five record categories a FileChange
// belongs to.
type Category string

const (
	CategoryClient    Category = "client"
	CategoryLibraries Category = "libraries"
	CategoryMods      Category = "mods"
	CategoryNatives   Category = "natives"
	CategoryAssets    Category = "assets"
)

// FileChange is a single added/modified/removed entry.
type FileChange struct {
	Category Category
	Key      string // identity key: singleton marker, rel path, or filename
	RelPath  string // namespace-rooted relative path, may be empty
	URL      string // absolute URL, may be empty
}

// Diff is the added/modified/removed triple over every category,
// flattened into one sequence per bucket.
type Diff struct {
	Added    []FileChange
	Modified []FileChange
	Removed  []FileChange
}

// IsEmpty reports whether the diff carries no changes at all.
func (d Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Modified) == 0 && len(d.Removed) == 0
}

const singletonKey = "client"

// Compute computes the diff between an optional previous snapshot and a
// required new one. A nil old marks every present-URL+path
// record as added.
func Compute(old *snapshot.Snapshot, next *snapshot.Snapshot) Diff {
	var d Diff

	if old == nil {
		d.Added = append(d.Added, clientAddedAll(next.Client)...)
		d.Added = append(d.Added, recordsToChanges(CategoryLibraries, next.Libraries)...)
		d.Added = append(d.Added, recordsToChanges(CategoryMods, next.Mods)...)
		d.Added = append(d.Added, nativesToChanges(next.Natives)...)
		d.Added = append(d.Added, recordsToChanges(CategoryAssets, next.Assets)...)
		return d
	}

	diffClient(&d, old.Client, next.Client)
	diffRecords(&d, CategoryLibraries, old.Libraries, next.Libraries)
	diffRecords(&d, CategoryMods, old.Mods, next.Mods)
	diffNatives(&d, old.Natives, next.Natives)
	diffRecords(&d, CategoryAssets, old.Assets, next.Assets)

	return d
}

func clientAddedAll(r *snapshot.Record) []FileChange {
	if r == nil || !r.HasURLAndPath() {
		return nil
	}
	return []FileChange{toChange(CategoryClient, singletonKey, *r)}
}

func toChange(cat Category, key string, r snapshot.Record) FileChange {
	fc := FileChange{Category: cat, Key: key}
	if r.URL != nil {
		fc.URL = *r.URL
	}
	if r.RelPath != nil {
		fc.RelPath = *r.RelPath
	}
	return fc
}

func recordsToChanges(cat Category, recs []snapshot.Record) []FileChange {
	out := make([]FileChange, 0, len(recs))
	for _, r := range recs {
		if !r.HasURLAndPath() {
			continue
		}
		out = append(out, toChange(cat, identityKey(cat, r), r))
	}
	return out
}

func identityKey(cat Category, r snapshot.Record) string {
	switch cat {
	case CategoryMods:
		return r.Name
	default: // Libraries, Assets key on relative path
		if r.RelPath != nil {
			return *r.RelPath
		}
		return r.Name
	}
}

func nativesToChanges(natives []snapshot.NativeRecord) []FileChange {
	out := make([]FileChange, 0, len(natives))
	for _, n := range natives {
		if !n.HasURLAndPath() {
			continue
		}
		out = append(out, toChange(CategoryNatives, nativeKey(n), n.Record))
	}
	return out
}

// nativeKey scopes the native identity key within its OS bucket, since
// identical filenames in different OS buckets are distinct entries.
func nativeKey(n snapshot.NativeRecord) string {
	return n.OS + "/" + n.Name
}

func diffClient(d *Diff, old, next *snapshot.Record) {
	switch {
	case old == nil && next == nil:
		return
	case old == nil:
		d.Added = append(d.Added, clientAddedAll(next)...)
	case next == nil:
		if old.HasURLAndPath() {
			d.Removed = append(d.Removed, toChange(CategoryClient, singletonKey, *old))
		}
	default:
		oldPresent, nextPresent := old.HasURLAndPath(), next.HasURLAndPath()
		switch {
		case !oldPresent && nextPresent:
			d.Added = append(d.Added, toChange(CategoryClient, singletonKey, *next))
		case oldPresent && !nextPresent:
			d.Removed = append(d.Removed, toChange(CategoryClient, singletonKey, *old))
		case oldPresent && nextPresent:
			if old.Digest != next.Digest {
				d.Modified = append(d.Modified, toChange(CategoryClient, singletonKey, *next))
			}
		}
	}
}

func diffRecords(d *Diff, cat Category, oldRecs, nextRecs []snapshot.Record) {
	oldByKey := make(map[string]snapshot.Record, len(oldRecs))
	for _, r := range oldRecs {
		if r.HasURLAndPath() {
			oldByKey[identityKey(cat, r)] = r
		}
	}
	nextByKey := make(map[string]snapshot.Record, len(nextRecs))
	for _, r := range nextRecs {
		if r.HasURLAndPath() {
			nextByKey[identityKey(cat, r)] = r
		}
	}

	for key, nr := range nextByKey {
		or, existed := oldByKey[key]
		switch {
		case !existed:
			d.Added = append(d.Added, toChange(cat, key, nr))
		case or.Digest != nr.Digest:
			d.Modified = append(d.Modified, toChange(cat, key, nr))
		}
	}
	for key, or := range oldByKey {
		if _, stillPresent := nextByKey[key]; !stillPresent {
			d.Removed = append(d.Removed, toChange(cat, key, or))
		}
	}
}

// diffNatives implements the None/Some transition rules: None->Some
// promotes every new entry to added, Some->None demotes every old entry
// to removed, Some->Some runs the per-key rule.
func diffNatives(d *Diff, oldNatives, nextNatives []snapshot.NativeRecord) {
	switch {
	case oldNatives == nil && nextNatives == nil:
		return
	case oldNatives == nil:
		d.Added = append(d.Added, nativesToChanges(nextNatives)...)
		return
	case nextNatives == nil:
		d.Removed = append(d.Removed, nativesToChanges(oldNatives)...)
		return
	}

	oldByKey := make(map[string]snapshot.NativeRecord, len(oldNatives))
	for _, n := range oldNatives {
		if n.HasURLAndPath() {
			oldByKey[nativeKey(n)] = n
		}
	}
	nextByKey := make(map[string]snapshot.NativeRecord, len(nextNatives))
	for _, n := range nextNatives {
		if n.HasURLAndPath() {
			nextByKey[nativeKey(n)] = n
		}
	}

	for key, nn := range nextByKey {
		on, existed := oldByKey[key]
		switch {
		case !existed:
			d.Added = append(d.Added, toChange(CategoryNatives, key, nn.Record))
		case on.Digest != nn.Digest:
			d.Modified = append(d.Modified, toChange(CategoryNatives, key, nn.Record))
		}
	}
	for key, on := range oldByKey {
		if _, stillPresent := nextByKey[key]; !stillPresent {
			d.Removed = append(d.Removed, toChange(CategoryNatives, key, on.Record))
		}
	}
}

// Apply folds added/modified into next's resolution index via
// AddResolution, and removed via RemoveResolution. Entries with an
// empty URL are skipped.
func Apply(d Diff, next *snapshot.Snapshot) {
	for _, fc := range append(append([]FileChange{}, d.Added...), d.Modified...) {
		if fc.URL == "" {
			continue
		}
		next.AddResolution(fc.URL, stripNamespace(fc.RelPath))
	}
	for _, fc := range d.Removed {
		if fc.URL == "" {
			continue
		}
		next.RemoveResolution(fc.URL)
	}
}

func stripNamespace(relPath string) string {
	for i := 0; i < len(relPath); i++ {
		if relPath[i] == '/' {
			return relPath[i+1:]
		}
	}
	return relPath
}
