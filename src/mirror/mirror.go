// Package mirror implements the C9 mirror builder of spec §4.9: given a
// list of game versions, populate a self-contained tree (version manifest,
// per-version JSON, client jars, libraries, asset indexes, and asset
// objects) that a deployment can serve as a drop-in replacement origin.
//
// Grounded on glorpus-work-gotya/pkg/orchestrator.SyncAll (fetch-many,
// continue-past-per-item-failure, aggregate-at-the-end) and teacher's
// DownloadVersion (the same walk, now against a real/primary origin with a
// fixed concurrency of 8). MirrorContext holds its collaborators and output
// directory as fields instead of relying on shared mutable globals, replacing
// the package-level `var E *events.EventEmitter` design flaw spec §9 flags.
// It keeps no dedup set: RunBestEffort does not deduplicate tasks, so an
// artifact shared by two versions is planned again for the second one and
// skipped there when its file already verifies.
package mirror

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"
	goversion "github.com/hashicorp/go-version"

	"github.com/urixen-org/instancesync/src/config"
	"github.com/urixen-org/instancesync/src/downloader"
	"github.com/urixen-org/instancesync/src/events"
	"github.com/urixen-org/instancesync/src/fsutil"
	"github.com/urixen-org/instancesync/src/httpclient"
	"github.com/urixen-org/instancesync/src/logging"
	"github.com/urixen-org/instancesync/src/manifest"
	"github.com/urixen-org/instancesync/src/model"
	"github.com/urixen-org/instancesync/src/planner"
	"github.com/urixen-org/instancesync/src/progress"
	"github.com/urixen-org/instancesync/src/sources"
	"github.com/urixen-org/instancesync/src/xerrors"
)

// Concurrency is the fixed worker-pool size spec §4.9 mandates for mirror
// builds (the installer leaves Options.Concurrency unset and so runs at
// downloader.DefaultConcurrency).
const Concurrency = 8

// MirrorContext owns the collaborators and output directory for one mirror
// build. A fresh MirrorContext is created per run; nothing here is shared
// across builds, so concurrent builds against different output
// directories cannot interfere with one another.
type MirrorContext struct {
	HTTP       *httpclient.Client
	Cfg        config.View
	Manifest   *manifest.Resolver
	Planner    *planner.Planner
	Downloader *downloader.Downloader
	OutputDir  string

	// Events carries discrete, named lifecycle signals for a CLI/GUI activity
	// log, complementary to the continuous progress.Reporter fraction passed
	// to Build. Nil is fine: emit is only called when non-nil.
	Events *events.EventEmitter
}

// New creates a MirrorContext writing into outputDir.
func New(http *httpclient.Client, cfg config.View, outputDir string, emitter *events.EventEmitter) *MirrorContext {
	return &MirrorContext{
		HTTP:       http,
		Cfg:        cfg,
		Manifest:   manifest.New(http, cfg),
		Planner:    planner.New(cfg),
		Downloader: downloader.New(http),
		OutputDir:  outputDir,
		Events:     emitter,
	}
}

func (m *MirrorContext) emit(event string, data any) {
	if m.Events != nil {
		m.Events.Emit(event, data)
	}
}

// SortVersions parses and deduplicates a list of version strings with
// hashicorp/go-version, returning them newest-first; unparseable entries
// are kept (in original relative order, after the parseable ones) rather
// than dropped, since vanilla Minecraft version strings ("1.20.1",
// "23w31a") aren't all semver-shaped.
func SortVersions(raw []string) []string {
	type parsed struct {
		raw string
		v   *goversion.Version
	}
	seen := make(map[string]bool, len(raw))
	var good []parsed
	var unparsed []string

	for _, s := range raw {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		if v, err := goversion.NewSemver(s); err == nil {
			good = append(good, parsed{raw: s, v: v})
		} else {
			unparsed = append(unparsed, s)
		}
	}

	sort.Slice(good, func(i, j int) bool { return good[i].v.GreaterThan(good[j].v) })

	out := make([]string, 0, len(good)+len(unparsed))
	for _, g := range good {
		out = append(out, g.raw)
	}
	out = append(out, unparsed...)
	return out
}

// Build populates the mirror tree for every version in versions, continuing
// past per-artifact failures and returning their aggregate at the end, per
// spec §4.9. The overall fraction reported through r is split evenly across
// versions.
func (m *MirrorContext) Build(ctx context.Context, versions []string, r progress.Reporter) error {
	if err := m.fetchReleaseIndex(ctx); err != nil {
		return xerrors.Wrap(err, "fetching release index")
	}

	var result *multierror.Error
	n := len(versions)

	for idx, ver := range versions {
		log := logging.With(map[string]any{"version": ver})
		log.Info("mirroring version")

		lo, hi := float64(idx)/float64(n), float64(idx+1)/float64(n)
		if err := m.buildOne(ctx, ver, progress.Filter(r, lo, hi)); err != nil {
			log.Warnf("mirror of %s failed: %v", ver, err)
			m.emit("version_mirror_failed", ver)
			result = multierror.Append(result, fmt.Errorf("version %s: %w", ver, err))
		} else {
			m.emit("version_mirrored", ver)
		}
	}

	if result != nil {
		return result.ErrorOrNil()
	}
	return nil
}

// fetchReleaseIndex fetches the release list and writes it to the mirror
// root as version_manifest.json; Build calls it once, before any version.
// Each version's manifest resolution (src/manifest) fetches the release list
// again to find its own entry. Its failure is fatal to the whole build,
// unlike the per-artifact failures Build otherwise tolerates.
func (m *MirrorContext) fetchReleaseIndex(ctx context.Context) error {
	srcs := sources.Build(m.Cfg, config.KeyVersionManifestURL, config.KeyCustomVersionManifestURL, sources.Identity)
	if len(srcs) == 0 {
		return xerrors.ErrNoSources
	}

	var lastErr error
	for _, src := range srcs {
		data, err := m.HTTP.Get(ctx, src).ExpectStatus(200).Bytes()
		if err != nil {
			lastErr = err
			continue
		}
		out := filepath.Join(m.OutputDir, "version_manifest.json")
		if err := fsutil.EnsureDir(filepath.Dir(out)); err != nil {
			return xerrors.Wrap(xerrors.ErrIO, err.Error())
		}
		if err := os.WriteFile(out, data, fsutil.FileModeSecure); err != nil {
			return xerrors.Wrap(xerrors.ErrIO, err.Error())
		}
		return nil
	}
	if lastErr == nil {
		return xerrors.ErrNoSources
	}
	return lastErr
}

func (m *MirrorContext) buildOne(ctx context.Context, gameVersion string, r progress.Reporter) error {
	pkg := &model.PackageManifest{GameVersion: gameVersion}
	versionPath := filepath.Join(m.OutputDir, "versions", gameVersion+".json")

	vm, err := m.Manifest.Resolve(ctx, pkg, versionPath)
	if err != nil {
		return err
	}
	progress.Filter(r, 0, 0.1).Report(1, "manifest resolved")

	tasks := m.Planner.Plan(vm, pkg, m.OutputDir)
	errs := m.Downloader.RunBestEffort(ctx, tasks, downloader.Options{
		Concurrency: Concurrency,
		Reporter:    progress.Filter(r, 0.1, 0.6),
	})

	var assetErrs []error
	if vm.AssetIndex != nil {
		assetErrs = m.mirrorAssets(ctx, vm, progress.Filter(r, 0.6, 1))
	}

	all := append(errs, assetErrs...)
	if len(all) == 0 {
		return nil
	}
	var result *multierror.Error
	for _, e := range all {
		result = multierror.Append(result, e)
	}
	return result.ErrorOrNil()
}

func (m *MirrorContext) mirrorAssets(ctx context.Context, vm *model.VersionManifest, r progress.Reporter) []error {
	indexPath := filepath.Join(m.OutputDir, "indexes", vm.AssetID+".json")
	index, err := model.LoadAssetsIndex(indexPath)
	if err != nil {
		return []error{err}
	}
	tasks := m.Planner.PlanMirrorAssets(index, m.OutputDir)
	return m.Downloader.RunBestEffort(ctx, tasks, downloader.Options{
		Concurrency: Concurrency,
		Reporter:    r,
	})
}
