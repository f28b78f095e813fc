// Package snapshot implements the immutable per-namespace metadata
// model: records for each file category, and the URL->relative-path
// resolution index consulted on every file-serve request.
package snapshot

// Record is the common shape shared by every category entry: a name, an
// absolute URL, the path relative to the namespace root, a content
// digest, and a size in bytes. URL and RelPath are pointers so "absent"
// (unhosted maven entries, unserved assets) is distinguishable from the
// empty string.
type Record struct {
	Name    string  `json:"name"`
	URL     *string `json:"url,omitempty"`
	RelPath *string `json:"path,omitempty"`
	Digest  string  `json:"sha1"`
	Size    int64   `json:"size"`
}

// OS tags for native records.
const (
	OSWindows = "windows"
	OSLinux   = "linux"
	OSMacOS   = "macos"
)

// NativeRecord additionally carries the OS bucket it was scanned from.
type NativeRecord struct {
	Record
	OS string `json:"os"`
}

// HasURLAndPath reports whether both URL and RelPath are present, the
// condition under which a record participates in the resolution index.
func (r Record) HasURLAndPath() bool {
	return r.URL != nil && *r.URL != "" && r.RelPath != nil && *r.RelPath != ""
}

func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
