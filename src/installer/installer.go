// Package installer implements the C7 orchestrator of spec §4.7: decide
// whether an instance needs installing or updating, then drive C4
// (manifest resolution), C5 (planning), C6 (downloading), the overlay
// installer, and the native-extraction install phase in order, committing
// the resulting Instance record only once every phase has succeeded.
//
// Grounded on teacher's launcher.go (extractNativesFromLibraries /
// PrepareCMD's overall phase ordering: load version json, extract natives,
// build classpath) for the phase sequence, and
// glorpus-work-gotya/pkg/orchestrator.Install/Update (plan -> prefetch ->
// execute, event emission per phase, dry-run short-circuit) for the
// orchestration shape.
package installer

import (
	"context"
	"path/filepath"

	"github.com/urixen-org/instancesync/src/config"
	"github.com/urixen-org/instancesync/src/downloader"
	"github.com/urixen-org/instancesync/src/events"
	"github.com/urixen-org/instancesync/src/httpclient"
	"github.com/urixen-org/instancesync/src/instancestore"
	"github.com/urixen-org/instancesync/src/logging"
	"github.com/urixen-org/instancesync/src/manifest"
	"github.com/urixen-org/instancesync/src/model"
	"github.com/urixen-org/instancesync/src/overlay"
	"github.com/urixen-org/instancesync/src/planner"
	"github.com/urixen-org/instancesync/src/progress"
	"github.com/urixen-org/instancesync/src/xerrors"
)

// Installer orchestrates the full update-or-install pipeline for one
// instance.
type Installer struct {
	HTTP       *httpclient.Client
	Manifest   *manifest.Resolver
	Planner    *planner.Planner
	Downloader *downloader.Downloader
	Overlay    *overlay.Installer
	Store      instancestore.Store

	// Events carries discrete, named lifecycle signals (as opposed to the
	// continuous progress.Reporter fraction) for a GUI's activity log; it
	// is the same EventEmitter teacher's launcher/downloader/fabric
	// packages emitted through. Nil is fine: Emit is only called when
	// non-nil.
	Events *events.EventEmitter
}

// New wires an Installer's collaborators from a shared config view and
// HTTP client.
func New(http *httpclient.Client, cfg config.View, store instancestore.Store, emitter *events.EventEmitter) *Installer {
	return &Installer{
		HTTP:       http,
		Manifest:   manifest.New(http, cfg),
		Planner:    planner.New(cfg),
		Downloader: downloader.New(http),
		Overlay:    overlay.New(http, cfg),
		Store:      store,
		Events:     emitter,
	}
}

func (i *Installer) emit(event string, data any) {
	if i.Events != nil {
		i.Events.Emit(event, data)
	}
}

// Decision is the update-decision table outcome of spec §4.7.
type Decision int

const (
	// DecisionUpToDate means nothing needs to be fetched.
	DecisionUpToDate Decision = iota
	// DecisionInstall means the instance has never been installed.
	DecisionInstall
	// DecisionUpdate means an installed instance has a pending update.
	DecisionUpdate
)

// Decide implements spec §4.7's update-decision table: a never-installed
// instance must be installed; an installed instance with UpdatePending must
// be updated (failing per the offline/no-manifest policy errors if it
// cannot be); anything else is already up to date.
func Decide(inst *model.Instance, online bool) (Decision, error) {
	if !inst.Installed {
		if inst.ManifestURL == nil {
			return 0, xerrors.ErrUpdateRequiredNoManifest
		}
		if !online {
			return 0, xerrors.ErrUpdateRequiredOffline
		}
		return DecisionInstall, nil
	}
	if !inst.UpdatePending {
		return DecisionUpToDate, nil
	}
	if !online {
		return 0, xerrors.ErrUpdateRequiredOffline
	}
	if inst.ManifestURL == nil {
		return 0, xerrors.ErrUpdateRequiredNoManifest
	}
	return DecisionUpdate, nil
}

// Apply runs every phase needed to bring inst up to date with pkg, reporting
// progress through r. It follows spec §4.7's literal step order: mark the
// instance local and commit, install overlay content, apply the package's
// high-level fields, resolve the version manifest, plan+download the core
// artifacts, then extract natives. The Instance record's final state
// (installed/updatePending/local) is committed only after every phase
// succeeds, so a failed run never leaves a half-updated, falsely-Installed
// record behind.
//
// Phase weighting (spec §4.7's composed-fraction guidance): overlay content
// 0-15%, manifest resolution 15-25%, core plan download 25-70%, asset
// objects 70-90%, native extraction 90-100%.
func (i *Installer) Apply(ctx context.Context, inst *model.Instance, pkg *model.PackageManifest, r progress.Reporter) error {
	log := logging.With(map[string]any{"instance": inst.Name, "version": pkg.GameVersion})

	inst.Local = true
	if i.Store != nil {
		if err := i.Store.Commit(inst); err != nil {
			return xerrors.Wrap(err, "committing instance record")
		}
	}

	log.Info("installing overlay content")
	if err := i.Overlay.Install(ctx, pkg, inst.ContentDir, progress.Filter(r, 0, 0.15)); err != nil {
		return xerrors.Wrap(err, "installing overlay content")
	}
	i.emit("overlay_installed", pkg.Version)

	inst.Version = pkg.Version

	log.Info("resolving version manifest")
	versionPath := filepath.Join(inst.ContentDir, "version.json")
	vm, err := i.Manifest.Resolve(ctx, pkg, versionPath)
	if err != nil {
		return xerrors.Wrap(err, "resolving version manifest")
	}
	progress.Filter(r, 0.15, 0.25).Report(1, "manifest resolved")
	i.emit("manifest_resolved", vm.ID)

	log.Info("building download plan")
	tasks := i.Planner.Plan(vm, pkg, inst.ContentDir)

	log.Infof("downloading %d artifacts", len(tasks))
	if err := i.Downloader.Run(ctx, tasks, downloader.Options{Reporter: progress.Filter(r, 0.25, 0.7)}); err != nil {
		return xerrors.Wrap(err, "downloading core artifacts")
	}
	i.emit("core_artifacts_downloaded", len(tasks))

	if vm.AssetIndex != nil {
		assetTasks, err := i.planAssetObjects(vm, inst.ContentDir)
		if err != nil {
			return xerrors.Wrap(err, "planning asset objects")
		}
		log.Infof("downloading %d asset objects", len(assetTasks))
		if err := i.Downloader.Run(ctx, assetTasks, downloader.Options{Reporter: progress.Filter(r, 0.7, 0.9)}); err != nil {
			return xerrors.Wrap(err, "downloading asset objects")
		}
		i.emit("asset_objects_downloaded", len(assetTasks))
	}

	log.Info("extracting natives")
	nativesDir := filepath.Join(inst.ContentDir, "versions", vm.ID, "natives")
	libDir := filepath.Join(inst.ContentDir, "libraries")
	if err := extractNatives(libDir, nativesDir); err != nil {
		return xerrors.Wrap(err, "extracting natives")
	}
	progress.Filter(r, 0.9, 1).Report(1, "natives extracted")
	i.emit("natives_extracted", vm.ID)

	inst.Installed = true
	inst.UpdatePending = false
	if i.Store != nil {
		if err := i.Store.Commit(inst); err != nil {
			return xerrors.Wrap(err, "committing instance record")
		}
	}
	i.emit("install_complete", inst.Name)
	return nil
}

// planAssetObjects reads the asset index Plan already downloaded as part of
// the core plan and expands it into per-asset-object DownloadTasks (spec
// §4.5's two-stage plan: the index's contents can only be enumerated after
// the index itself lands on disk).
func (i *Installer) planAssetObjects(vm *model.VersionManifest, contentDir string) ([]model.DownloadTask, error) {
	indexPath := filepath.Join(contentDir, "indexes", vm.AssetID+".json")
	index, err := model.LoadAssetsIndex(indexPath)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrIO, err.Error())
	}
	return i.Planner.PlanAssets(index, contentDir), nil
}
