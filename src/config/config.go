// Package config is the configuration-view collaborator the source-list
// builder (C3) and manifest resolver (C4) are specified against: a
// key→string settings surface, read here from a YAML file with
// environment-variable overrides.
//
// Grounded on celestiaorg-popsigner's popctl and control-plane binaries,
// both of which bind github.com/spf13/viper to a YAML config file plus an
// env prefix for exactly this kind of settings surface.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Keys used by spec §6. Exported as constants so call sites don't hand-type
// the string literals.
const (
	KeyLibrariesSource           = "librariesSource"
	KeyAssetsSource              = "assetsSource"
	KeyVersionManifestURL        = "versionManifestUrl"
	KeyCustomLibrariesSource     = "customLibrariesSource"
	KeyCustomAssetsSource        = "customAssetsSource"
	KeyCustomVersionManifestURL  = "customVersionManifestUrl"
	KeyCustomVersionsSource      = "customVersionsSource"
	KeyCustomAssetIndexesSource  = "customAssetIndexesSource"
	KeyCustomSourcesFirst        = "customSourcesFirst"
)

// View is the minimal configuration-view capability spec §4.3 is specified
// against.
type View interface {
	// Get returns the raw value for key and whether it was present.
	Get(key string) (string, bool)
}

// Store is a viper-backed View. The zero value is not usable; use New or
// Load.
type Store struct {
	v *viper.Viper
}

// New creates an empty Store, suitable for tests or for setting values
// programmatically via Set.
func New() *Store {
	v := viper.New()
	v.SetEnvPrefix("INSTANCESYNC")
	v.AutomaticEnv()
	return &Store{v: v}
}

// Load reads configuration from a YAML file at path. Environment variables
// (INSTANCESYNC_<KEY>) take precedence over the file's values and also
// supply keys the file omits.
func Load(path string) (*Store, error) {
	s := New()
	s.v.SetConfigFile(path)
	s.v.SetConfigType("yaml")
	if err := s.v.ReadInConfig(); err != nil {
		return nil, err
	}
	return s, nil
}

// Set assigns a value programmatically, overriding the file/env value.
func (s *Store) Set(key, value string) {
	s.v.Set(key, value)
}

// Get implements View. A value is "present" only if it is non-blank after
// trimming whitespace, per spec §6 ("a blank/whitespace value is treated as
// absent").
func (s *Store) Get(key string) (string, bool) {
	raw := s.v.GetString(key)
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	return raw, true
}

// CustomSourcesFirst implements the customSourcesFirst flag semantics of
// spec §4.3/§6: "true" case-insensitively flips ordering, anything else
// (including absence) means custom-is-fallback.
func CustomSourcesFirst(v View) bool {
	value, ok := v.Get(KeyCustomSourcesFirst)
	return ok && strings.EqualFold(value, "true")
}
