// Package configwatch owns the configuration document model, the
// TOML loader, and the hot-reload coordinator that watches the
// document path, debounces changes, diffs the namespace set against the
// running configuration, and performs the coordinated atomic swap with
// the rescan orchestrator.
package configwatch

import (
	"os"

	"github.com/BurntSushi/toml"
)

// ServerConfig is the immutable, user-declared namespace entity.
// The struct tags are the TOML field names recognized by the loader;
// unrecognized fields are ignored.
type ServerConfig struct {
	Name           string `toml:"name"`
	Enabled        bool   `toml:"enabled"`
	Loader         string `toml:"loader"`
	LoaderVersion  string `toml:"loader_version"`
	TargetVersion  string `toml:"target_version"`
	EntryPoint     string `toml:"entry_point"`
	RuntimeVersion int    `toml:"runtime_version"`

	EnableClient    bool `toml:"enable_client"`
	EnableLibraries bool `toml:"enable_libraries"`
	EnableMods      bool `toml:"enable_mods"`
	EnableNatives   bool `toml:"enable_natives"`
	EnableAssets    bool `toml:"enable_assets"`

	GameArgs    []string `toml:"game_args"`
	RuntimeArgs []string `toml:"runtime_args"`
}

type ServerSection struct {
	Host                 string   `toml:"host"`
	Port                 int      `toml:"port"`
	BaseURL              string   `toml:"base_url"`
	BasePath             string   `toml:"base_path"`
	TCPNoDelay           bool     `toml:"tcp_nodelay"`
	TimeoutSecs          int      `toml:"timeout_secs"`
	MaxConcurrentReqs    int      `toml:"max_concurrent_requests"`
	MaxBodySizeMB        int      `toml:"max_body_size_mb"`
	StreamingThresholdMB int      `toml:"streaming_threshold_mb"`
	EnableCompression    bool     `toml:"enable_compression"`
	AllowedOrigins       []string `toml:"allowed_origins"`
}

type BatchSection struct {
	Client    int `toml:"client"`
	Libraries int `toml:"libraries"`
	Mods      int `toml:"mods"`
	Natives   int `toml:"natives"`
	Assets    int `toml:"assets"`
}

type CacheSection struct {
	Enabled              bool         `toml:"enabled"`
	AutoScan             bool         `toml:"auto_scan"`
	RescanIntervalSecs   int          `toml:"rescan_interval"`
	MaxMemoryCacheGB     float64      `toml:"max_memory_cache_gb"`
	ChecksumBufferSize   int          `toml:"checksum_buffer_size"`
	ConfigReloadChanSize int          `toml:"config_reload_channel_size"`
	Batch                BatchSection `toml:"batch"`
}

type HotReloadSub struct {
	Enabled    bool `toml:"enabled"`
	DebounceMs int  `toml:"debounce_ms"`
}

type HotReloadSection struct {
	Config HotReloadSub `toml:"config"`
	Files  HotReloadSub `toml:"files"`
	// FilesLegacyDebounceMs is the deprecated
	// [hot-reload].file_watcher_debounce_ms key. [hot-reload.files].debounce_ms is
	// authoritative; this legacy key is migrated (copied over) only when
	// the new key was left at its zero value, and a mismatch between the
	// two is logged, never silently guessed at.
	FilesLegacyDebounceMs int `toml:"file_watcher_debounce_ms"`
}

type S3Section struct {
	Endpoint  string `toml:"endpoint"`
	Region    string `toml:"region"`
	Bucket    string `toml:"bucket"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	PublicURL string `toml:"public_url"`
}

type StorageSection struct {
	Backend string    `toml:"backend"` // "local" | "s3"
	S3      S3Section `toml:"s3"`
}

type CDNSection struct {
	Provider string `toml:"provider"`
	ZoneID   string `toml:"zone_id"`
	APIToken string `toml:"api_token"`
}

type CloudflareSection struct {
	ZoneID   string `toml:"zone_id"`
	APIToken string `toml:"api_token"`
	BaseURL  string `toml:"base_url"`
}

// Config is the full parsed document.
type Config struct {
	Server     ServerSection     `toml:"server"`
	Cache      CacheSection      `toml:"cache"`
	HotReload  HotReloadSection  `toml:"hot-reload"`
	Storage    StorageSection    `toml:"storage"`
	CDN        CDNSection        `toml:"cdn"`
	Cloudflare CloudflareSection `toml:"cloudflare"`
	Servers    []ServerConfig    `toml:"servers"`
}

// Load parses the TOML document at path. Parse failures are returned
// verbatim (wrapped by the caller as cmn.KindConfigParse); the caller is
// responsible for the "keep the old configuration" propagation policy
// -- Load itself is a pure, side-effect-free parse.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	resolveFileDebounce(&cfg)
	return &cfg, nil
}

// resolveFileDebounce implements the legacy-key migration:
// [hot-reload.files].debounce_ms is authoritative. If only the legacy
// [hot-reload].file_watcher_debounce_ms key is set, it is copied forward. If both are set to
// different nonzero values we keep the authoritative one and do not
// guess -- callers should log the discrepancy via Config.DebounceConflict.
func resolveFileDebounce(cfg *Config) {
	legacy := cfg.HotReload.FilesLegacyDebounceMs
	current := cfg.HotReload.Files.DebounceMs
	if current == 0 && legacy != 0 {
		cfg.HotReload.Files.DebounceMs = legacy
	}
}

// DebounceConflict reports whether the legacy and current file debounce
// keys are both set and disagree, so the loader's caller can log it
// instead of silently picking one.
func (c *Config) DebounceConflict() bool {
	legacy := c.HotReload.FilesLegacyDebounceMs
	current := c.HotReload.Files.DebounceMs
	return legacy != 0 && current != 0 && legacy != current
}

// NamespaceByName returns the ServerConfig with the given name, if any.
func (c *Config) NamespaceByName(name string) (ServerConfig, bool) {
	for _, sc := range c.Servers {
		if sc.Name == name {
			return sc, true
		}
	}
	return ServerConfig{}, false
}

// EnabledNamespaces returns every namespace with Enabled == true.
func (c *Config) EnabledNamespaces() []ServerConfig {
	out := make([]ServerConfig, 0, len(c.Servers))
	for _, sc := range c.Servers {
		if sc.Enabled {
			out = append(out, sc)
		}
	}
	return out
}
