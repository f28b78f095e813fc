package scan_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Lighty-Launcher/LightyUpdater/cmn"
	"github.com/Lighty-Launcher/LightyUpdater/scan"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func defaultBatch() scan.BatchConfig {
	return scan.BatchConfig{Client: 2, Libraries: 4, Mods: 4, Natives: 4, Assets: 8}
}

// allEnabled turns on every category flag, the common case for these
// tests; the gating itself is covered by TestScanSkipsDisabledCategories.
func allEnabled(opt scan.Options) scan.Options {
	opt.EnableClient = true
	opt.EnableLibraries = true
	opt.EnableMods = true
	opt.EnableNatives = true
	opt.EnableAssets = true
	return opt
}

func TestScanMissingNamespaceDirFails(t *testing.T) {
	_, err := scan.Scan(context.Background(), allEnabled(scan.Options{
		Namespace: "ghost",
		Dir:       filepath.Join(t.TempDir(), "does-not-exist"),
		BaseURL:   "http://h",
		Batch:     defaultBatch(),
	}))
	if err == nil {
		t.Fatal("expected a scan-structural error for a missing namespace directory")
	}
}

func TestScanProducesExpectedCategories(t *testing.T) {
	base := t.TempDir()
	ns := "vanilla"
	root := filepath.Join(base, ns)

	writeFile(t, filepath.Join(root, "client", "client.jar"), "client-bytes")
	writeFile(t, filepath.Join(root, "libraries", "org", "lwjgl", "lwjgl", "3.3.1", "lwjgl-3.3.1.jar"), "lib-bytes")
	writeFile(t, filepath.Join(root, "mods", "mod1.jar"), "mod1-bytes")
	writeFile(t, filepath.Join(root, "mods", "mod2.jar"), "mod2-bytes")
	writeFile(t, filepath.Join(root, "natives", "windows", "n1.dll"), "native-bytes")
	writeFile(t, filepath.Join(root, "assets", "objects", "ab", "abcdef"), "asset-bytes")

	snap, err := scan.Scan(context.Background(), allEnabled(scan.Options{
		Namespace:          ns,
		Dir:                root,
		BaseURL:            "http://h",
		Batch:              defaultBatch(),
		ChecksumBufferSize: 1024,
		EntryPointClass:    "net.minecraft.client.main.Main",
		RuntimeVersion:     17,
	}))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if snap.Client == nil || snap.Client.Name != "client.jar" {
		t.Fatalf("got client %+v, want client.jar", snap.Client)
	}
	if len(snap.Libraries) != 1 || snap.Libraries[0].Name != "org.lwjgl:lwjgl:3.3.1" {
		t.Fatalf("got libraries %+v, want one lwjgl maven-named entry", snap.Libraries)
	}
	if len(snap.Mods) != 2 {
		t.Fatalf("got %d mods, want 2", len(snap.Mods))
	}
	if snap.Natives == nil || len(snap.Natives) != 1 || snap.Natives[0].OS != "windows" {
		t.Fatalf("got natives %+v, want one windows entry", snap.Natives)
	}
	if len(snap.Assets) != 1 {
		t.Fatalf("got %d assets, want 1", len(snap.Assets))
	}

	snap.BuildResolutionIndex()
	// client(1) + library(1) + mods(2) + native(1) + asset(1) == 6.
	if got, want := snap.IndexLen(), 6; got != want {
		t.Fatalf("index length = %d, want %d", got, want)
	}
}

func TestScanNativesNoneWhenDirectoryAbsent(t *testing.T) {
	base := t.TempDir()
	ns := "vanilla"
	root := filepath.Join(base, ns)
	writeFile(t, filepath.Join(root, "mods", ".keep"), "x")

	snap, err := scan.Scan(context.Background(), allEnabled(scan.Options{
		Namespace: ns,
		Dir:       root,
		BaseURL:   "http://h",
		Batch:     defaultBatch(),
	}))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if snap.Natives != nil {
		t.Fatalf("got natives %+v, want nil (None) when natives/ does not exist", snap.Natives)
	}
}

func TestScanNativesSomeEmptyWhenDirectoryExistsButNoFiles(t *testing.T) {
	base := t.TempDir()
	ns := "vanilla"
	root := filepath.Join(base, ns)
	if err := os.MkdirAll(filepath.Join(root, "natives"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	snap, err := scan.Scan(context.Background(), allEnabled(scan.Options{
		Namespace: ns,
		Dir:       root,
		BaseURL:   "http://h",
		Batch:     defaultBatch(),
	}))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if snap.Natives == nil {
		t.Fatal("got nil natives, want a non-nil empty slice (Some([]))")
	}
	if len(snap.Natives) != 0 {
		t.Fatalf("got %d natives, want 0", len(snap.Natives))
	}
}

func TestScanSkipsCorruptFileWithoutFailingCategory(t *testing.T) {
	base := t.TempDir()
	ns := "vanilla"
	root := filepath.Join(base, ns)
	writeFile(t, filepath.Join(root, "mods", "good.jar"), "good-bytes")

	// A dangling symlink is a candidate that survives directory listing
	// but fails to open when hashed; the per-candidate digest step must
	// log and skip it rather than failing the whole category.
	badPath := filepath.Join(root, "mods", "bad.jar")
	if err := os.Symlink(filepath.Join(root, "mods", "missing-target"), badPath); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	snap, err := scan.Scan(context.Background(), allEnabled(scan.Options{
		Namespace: ns,
		Dir:       root,
		BaseURL:   "http://h",
		Batch:     defaultBatch(),
	}))
	if err != nil {
		t.Fatalf("Scan must not fail the namespace for one bad file: %v", err)
	}
	if len(snap.Mods) != 1 || snap.Mods[0].Name != "good.jar" {
		t.Fatalf("got mods %+v, want only good.jar", snap.Mods)
	}
}

func TestScanSkipsDisabledCategories(t *testing.T) {
	base := t.TempDir()
	ns := "vanilla"
	root := filepath.Join(base, ns)
	writeFile(t, filepath.Join(root, "client", "client.jar"), "client-bytes")
	writeFile(t, filepath.Join(root, "mods", "mod1.jar"), "mod1-bytes")
	writeFile(t, filepath.Join(root, "natives", "windows", "n1.dll"), "native-bytes")
	writeFile(t, filepath.Join(root, "assets", "a.png"), "asset-bytes")

	snap, err := scan.Scan(context.Background(), scan.Options{
		Namespace:    ns,
		Dir:          root,
		BaseURL:      "http://h",
		Batch:        defaultBatch(),
		EnableClient: true,
		EnableAssets: true,
		// mods, libraries, natives left disabled despite files on disk
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if snap.Client == nil {
		t.Fatal("expected the enabled client category to be scanned")
	}
	if len(snap.Assets) != 1 {
		t.Fatalf("got %d assets, want 1", len(snap.Assets))
	}
	if len(snap.Mods) != 0 {
		t.Fatalf("got mods %+v, want none for a disabled category", snap.Mods)
	}
	if len(snap.Libraries) != 0 {
		t.Fatalf("got libraries %+v, want none for a disabled category", snap.Libraries)
	}
	if snap.Natives != nil {
		t.Fatalf("got natives %+v, want nil (None) for a disabled category", snap.Natives)
	}
}

func TestPathToMavenCoordinateFallbackUsedByScanner(t *testing.T) {
	// Sanity-check the helper scan/categories.go relies on directly, so a
	// malformed maven layout degrades to a filename rather than an error.
	_, err := cmn.PathToMavenCoordinate("onlyonecomponent.jar")
	if err == nil {
		t.Fatal("expected an error for a malformed maven path")
	}
}
