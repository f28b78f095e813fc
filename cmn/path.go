package cmn

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// namespaceCategoryDirs are the per-category subdirectories every
// namespace root is expected to have, used to bootstrap a
// freshly added namespace's directory tree.
var namespaceCategoryDirs = []string{"client", "libraries", "mods", "natives", "assets"}

// nativeOSDirs are the per-OS subdirectories under a namespace's natives/
// directory.
var nativeOSDirs = []string{"windows", "linux", "macos"}

// EnsureNamespaceTree creates dir, its category subdirectories, and the
// three OS subdirectories under natives/ if they do not already exist.
// It is idempotent: an existing tree is left untouched.
func EnsureNamespaceTree(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return NewIOError("ensure_namespace_tree", dir, err)
	}
	for _, sub := range namespaceCategoryDirs {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return NewIOError("ensure_namespace_tree", filepath.Join(dir, sub), err)
		}
	}
	for _, osTag := range nativeOSDirs {
		nativeDir := filepath.Join(dir, "natives", osTag)
		if err := os.MkdirAll(nativeDir, 0o755); err != nil {
			return NewIOError("ensure_namespace_tree", nativeDir, err)
		}
	}
	return nil
}

// ToSlash normalizes a filesystem path to use '/' as a separator
// regardless of host OS, matching the wire format of snapshot records
// and the resolution index.
func ToSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// StripLeadingNamespace removes the first path component (the
// namespace directory) from a namespace-rooted relative path, producing
// the category-rooted path stored in the resolution index: "myserver/mods/x.jar" -> "mods/x.jar".
func StripLeadingNamespace(relPath string) string {
	relPath = ToSlash(relPath)
	parts := strings.SplitN(relPath, "/", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return relPath
}

// PathToMavenCoordinate converts a library path of the form
// "g1/g2/.../artifact/version/artifact-version.ext" into a coordinate
// string "g1.g2...:artifact:version". The path must use '/'
// separators and carry at least three components (one group, artifact,
// version); fewer than that is a malformed maven layout.
func PathToMavenCoordinate(relPath string) (string, error) {
	relPath = ToSlash(relPath)
	relPath = strings.TrimPrefix(relPath, "/")
	parts := strings.Split(relPath, "/")
	if len(parts) < 3 {
		return "", fmt.Errorf("cmn: malformed maven path %q: need at least group/artifact/version", relPath)
	}
	// Drop the trailing filename; version and artifact are the last two
	// directory components, the rest are the dotted group id.
	dirs := parts[:len(parts)-1]
	version := dirs[len(dirs)-1]
	artifact := dirs[len(dirs)-2]
	groups := dirs[:len(dirs)-2]
	if len(groups) == 0 {
		return "", fmt.Errorf("cmn: malformed maven path %q: missing group component", relPath)
	}
	return fmt.Sprintf("%s:%s:%s", strings.Join(groups, "."), artifact, version), nil
}

// ContainsTraversal reports whether a client-supplied request path is
// unsafe: contains "..", a NUL byte, or an absolute/root indicator. Used
// by the serve-file handler.
func ContainsTraversal(requestPath string) bool {
	if strings.Contains(requestPath, "\x00") {
		return true
	}
	if strings.Contains(requestPath, "..") {
		return true
	}
	if strings.HasPrefix(requestPath, "/") {
		return true
	}
	return false
}
