// Package manifest implements the C4 manifest resolver of spec §4.4:
// resolve the embedded or remote VersionManifest for a PackageManifest,
// repairing old embedded manifests whose downloads map is empty.
//
// Grounded on glorpus-work-gotya/pkg/repository/sync.go's
// download-then-validate-then-cache flow and the first-success-wins,
// last-error-propagation iteration spec.md itself specifies in §4.4's
// failure policy.
package manifest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/urixen-org/instancesync/src/config"
	"github.com/urixen-org/instancesync/src/fsutil"
	"github.com/urixen-org/instancesync/src/httpclient"
	"github.com/urixen-org/instancesync/src/logging"
	"github.com/urixen-org/instancesync/src/model"
	"github.com/urixen-org/instancesync/src/sources"
	"github.com/urixen-org/instancesync/src/xerrors"
)

// releaseList is the wire shape of the version-manifest index: an ordered
// list of game versions with a per-version metadata URL.
type releaseList struct {
	Versions []releaseEntry `json:"versions"`
}

type releaseEntry struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Resolver resolves PackageManifests into VersionManifests.
type Resolver struct {
	HTTP *httpclient.Client
	Cfg  config.View
}

// New creates a Resolver.
func New(http *httpclient.Client, cfg config.View) *Resolver {
	return &Resolver{HTTP: http, Cfg: cfg}
}

// Resolve implements spec §4.4's five-step algorithm. versionPath is where
// the resolved manifest is atomically written (step 5); it may be empty to
// skip persistence (e.g. in tests).
func (r *Resolver) Resolve(ctx context.Context, pkg *model.PackageManifest, versionPath string) (*model.VersionManifest, error) {
	var vm *model.VersionManifest
	if pkg.VersionManifest != nil {
		vm = pkg.VersionManifest
	} else {
		fetched, err := r.fetchForGameVersion(ctx, pkg.GameVersion)
		if err != nil {
			return nil, err
		}
		vm = fetched
	}

	if len(vm.Downloads) == 0 {
		logging.Get().Infof("repairing version manifest %s: empty downloads map", vm.ID)
		fresh, err := r.fetchForGameVersion(ctx, pkg.GameVersion)
		if err != nil {
			return nil, xerrors.Wrapf(err, "repairing embedded manifest for %s", pkg.GameVersion)
		}
		// Preserve every other field (crucially Libraries, which may
		// differ from the fresh copy and must not be replaced) per spec
		// §4.4 step 4.
		vm.Downloads = fresh.Downloads
		vm.AssetIndex = fresh.AssetIndex
	}

	if versionPath != "" {
		if err := r.writeAtomic(versionPath, vm); err != nil {
			return nil, err
		}
	}

	return vm, nil
}

// fetchForGameVersion performs spec §4.4 steps 2-3: find the release entry
// matching gameVersion in the release list, then fetch its VersionManifest.
func (r *Resolver) fetchForGameVersion(ctx context.Context, gameVersion string) (*model.VersionManifest, error) {
	releaseSources := sources.Build(r.Cfg, config.KeyVersionManifestURL, config.KeyCustomVersionManifestURL, sources.Identity)
	if len(releaseSources) == 0 {
		return nil, xerrors.ErrNoSources
	}

	entry, err := r.findRelease(ctx, releaseSources, gameVersion)
	if err != nil {
		return nil, err
	}

	versionSources := sources.Build(r.Cfg, config.KeyVersionManifestURL, config.KeyCustomVersionsSource, sources.Suffix(gameVersion+".json"))
	// The release entry's own URL is authoritative when present; it is
	// tried first, ahead of the configured source list.
	if entry.URL != "" {
		versionSources = append([]string{entry.URL}, versionSources...)
	}

	var vm model.VersionManifest
	if err := r.fetchFirstSuccess(ctx, versionSources, &vm); err != nil {
		return nil, err
	}
	return &vm, nil
}

func (r *Resolver) findRelease(ctx context.Context, sourceList []string, gameVersion string) (releaseEntry, error) {
	var lastErr error
	for _, src := range sourceList {
		var list releaseList
		if err := r.HTTP.Get(ctx, src).ExpectStatus(200).JSON(&list); err != nil {
			lastErr = err
			continue
		}
		for _, v := range list.Versions {
			if v.ID == gameVersion {
				return v, nil
			}
		}
		return releaseEntry{}, xerrors.Wrapf(xerrors.ErrManifestNotFound, "%s", gameVersion)
	}
	if lastErr == nil {
		return releaseEntry{}, xerrors.ErrNoSources
	}
	return releaseEntry{}, lastErr
}

func (r *Resolver) fetchFirstSuccess(ctx context.Context, sourceList []string, out any) error {
	var lastErr error
	for _, src := range sourceList {
		if err := r.HTTP.Get(ctx, src).ExpectStatus(200).JSON(out); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		return xerrors.ErrNoSources
	}
	return lastErr
}

func (r *Resolver) writeAtomic(path string, vm *model.VersionManifest) error {
	if err := fsutil.EnsureDir(filepath.Dir(path)); err != nil {
		return xerrors.Wrap(xerrors.ErrIO, err.Error())
	}
	data, err := json.MarshalIndent(vm, "", "  ")
	if err != nil {
		return xerrors.Wrap(xerrors.ErrIO, err.Error())
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, fsutil.FileModeSecure); err != nil {
		return xerrors.Wrap(xerrors.ErrIO, err.Error())
	}
	if err := os.Rename(tmp, path); err != nil {
		return xerrors.Wrap(xerrors.ErrIO, err.Error())
	}
	return nil
}
