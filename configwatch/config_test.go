package configwatch_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Lighty-Launcher/LightyUpdater/configwatch"
)

const sampleConfig = `
[server]
host = "0.0.0.0"
port = 8080
base_url = "http://localhost:8080"
base_path = "/data/servers"
streaming_threshold_mb = 8

[cache]
enabled = true
auto_scan = true
rescan_interval = 30
max_memory_cache_gb = 1.5
checksum_buffer_size = 65536

[cache.batch]
client = 1
libraries = 8
mods = 8
natives = 4
assets = 16

[hot-reload.config]
enabled = true
debounce_ms = 500

[hot-reload.files]
enabled = true
debounce_ms = 250

[storage]
backend = "local"

[[servers]]
name = "vanilla"
enabled = true
loader = "fabric"
loader_version = "0.15.0"
target_version = "1.20.4"
entry_point = "net.minecraft.client.main.Main"
runtime_version = 17
enable_client = true
enable_libraries = true
enable_mods = true
enable_natives = true
enable_assets = true
game_args = ["--username", "${username}"]
runtime_args = ["-Xmx2G"]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadParsesRecognizedFields(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	cfg, err := configwatch.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 || cfg.Server.BasePath != "/data/servers" {
		t.Fatalf("got server section %+v", cfg.Server)
	}
	if cfg.Cache.Batch.Libraries != 8 {
		t.Fatalf("got batch.libraries = %d, want 8", cfg.Cache.Batch.Libraries)
	}
	if len(cfg.Servers) != 1 {
		t.Fatalf("got %d servers, want 1", len(cfg.Servers))
	}
	sc := cfg.Servers[0]
	if sc.Name != "vanilla" || sc.Loader != "fabric" || sc.RuntimeVersion != 17 {
		t.Fatalf("got server config %+v", sc)
	}
	if !reflect.DeepEqual(sc.GameArgs, []string{"--username", "${username}"}) {
		t.Fatalf("got game args %+v", sc.GameArgs)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := configwatch.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestLoadMalformedTOMLErrors(t *testing.T) {
	path := writeConfig(t, "this is not valid = = toml")
	_, err := configwatch.Load(path)
	if err == nil {
		t.Fatal("expected a parse error for malformed TOML")
	}
}

func TestLegacyDebounceMigratedWhenCurrentUnset(t *testing.T) {
	variant := `
[server]
port = 8080

[hot-reload]
file_watcher_debounce_ms = 777
`
	path := writeConfig(t, variant)
	cfg, err := configwatch.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := cfg.HotReload.Files.DebounceMs, 777; got != want {
		t.Fatalf("got debounce_ms = %d, want %d migrated from the legacy key", got, want)
	}
	if cfg.DebounceConflict() {
		t.Fatal("expected no conflict when only the legacy key is set")
	}
}

func TestLegacyDebounceConflictDetected(t *testing.T) {
	variant := `
[server]
port = 8080

[hot-reload]
file_watcher_debounce_ms = 777

[hot-reload.files]
debounce_ms = 250
`
	path := writeConfig(t, variant)
	cfg, err := configwatch.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := cfg.HotReload.Files.DebounceMs, 250; got != want {
		t.Fatalf("got debounce_ms = %d, want the authoritative current key value %d", got, want)
	}
	if !cfg.DebounceConflict() {
		t.Fatal("expected a conflict to be flagged when legacy and current disagree")
	}
}

func TestNamespaceByNameAndEnabledNamespaces(t *testing.T) {
	path := writeConfig(t, sampleConfig+"\n[[servers]]\nname = \"disabled-one\"\nenabled = false\n")
	cfg, err := configwatch.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, ok := cfg.NamespaceByName("missing"); ok {
		t.Fatal("expected NamespaceByName to report absent for an unknown name")
	}
	sc, ok := cfg.NamespaceByName("vanilla")
	if !ok || sc.Name != "vanilla" {
		t.Fatalf("got (%+v, %v)", sc, ok)
	}

	enabled := cfg.EnabledNamespaces()
	if len(enabled) != 1 || enabled[0].Name != "vanilla" {
		t.Fatalf("got enabled namespaces %+v, want only vanilla", enabled)
	}
}
