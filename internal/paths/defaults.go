package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// Logical keys recognized by the resolver. Every key resolves to exactly one
// path; lookups for anything else fail with ErrUnknownKey.
const (
	KeyProviders            = "providers"
	KeyProxy                = "proxy"
	KeySettings             = "settings"
	KeyDatabase             = "database"
	KeyTokens               = "tokens"
	KeyCacheRoot            = "cache_root"
	KeyArtworkCache         = "artwork_cache"
	KeyPublicDomainCatalogs = "public_domain_catalogs"
	KeyPluginsRoot          = "plugins_root"
	KeyLibraryIndex         = "library_index"
)

// overrideFileName is the fixed name of the path override document inside the
// config directory.
const overrideFileName = "config_paths.json"

// DefaultConfigDir returns the directory holding the operator-edited
// configuration documents.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "warpmc"), nil
}

func defaultDataDir() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "warpmc")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "warpmc")
	}
	return filepath.Join(home, ".local", "share", "warpmc")
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "warpmc")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "warpmc-cache")
	}
	return filepath.Join(home, ".cache", "warpmc")
}

func defaultPaths(configDir string) map[string]string {
	data := defaultDataDir()
	cache := defaultCacheDir()
	return map[string]string{
		KeyProviders:            filepath.Join(configDir, "provider_settings.json"),
		KeyProxy:                filepath.Join(configDir, "proxy_settings.json"),
		KeySettings:             filepath.Join(data, "user_settings.json"),
		KeyDatabase:             filepath.Join(data, "warpmc.db"),
		KeyTokens:               filepath.Join(data, "tokens"),
		KeyCacheRoot:            cache,
		KeyArtworkCache:         filepath.Join(cache, "artwork"),
		KeyPublicDomainCatalogs: filepath.Join(data, "public_domain_catalogs"),
		KeyPluginsRoot:          filepath.Join(data, "plugins"),
		KeyLibraryIndex:         filepath.Join(data, "library_index.json"),
	}
}
