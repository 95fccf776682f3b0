// Package planner implements the C5 deterministic plan builder of spec
// §4.5: walk a resolved VersionManifest and PackageManifest into a flat,
// side-effect-free list of DownloadTasks, with no I/O performed here.
//
// Grounded on teacher's DownloadLibraries/DownloadAssets/DownloadVersion
// (src/downloader/downloader.go), restructured from eager-download into
// pure enumeration so C6 can execute the result with concurrency,
// resumption, and progress reporting.
package planner

import (
	"path/filepath"
	"runtime"
	"sort"

	"github.com/urixen-org/instancesync/src/config"
	"github.com/urixen-org/instancesync/src/model"
	"github.com/urixen-org/instancesync/src/sources"
)

// osName returns the Minecraft-specific operating system name, ported from
// teacher's getOSName.
func osName() string {
	switch runtime.GOOS {
	case "windows":
		return "windows"
	case "darwin":
		return "osx"
	case "linux":
		return "linux"
	default:
		return runtime.GOOS
	}
}

// nativesKey returns the classifier key for this OS/arch's natives
// classifier, ported from teacher's inline logic in DownloadLibraries.
func nativesKey() string {
	switch osName() {
	case "windows":
		if runtime.GOARCH == "amd64" {
			return "natives-windows"
		}
		return "natives-windows-32"
	case "osx":
		return "natives-osx"
	case "linux":
		return "natives-linux"
	default:
		return ""
	}
}

// Planner builds DownloadTask lists from resolved manifests.
type Planner struct {
	Cfg config.View
}

// New creates a Planner.
func New(cfg config.View) *Planner {
	return &Planner{Cfg: cfg}
}

// Plan builds the task list for installing vm into contentDir: client jar,
// every applicable library (plus natives), and the asset index. Asset
// objects are not included; PlanAssets plans them once the index is on disk.
func (p *Planner) Plan(vm *model.VersionManifest, pkg *model.PackageManifest, contentDir string) []model.DownloadTask {
	var tasks []model.DownloadTask

	if jar, ok := vm.Downloads["client"]; ok && jar.URL != "" {
		tasks = append(tasks, model.DownloadTask{
			Sources:      p.clientJarSources(jar, vm.ID),
			TargetPath:   filepath.Join(contentDir, "versions", vm.ID+"-client.jar"),
			ExpectedHash: jar.Hash,
			ExpectedSize: jar.Size,
			Role:         model.RoleJAR,
		})
	}

	tasks = append(tasks, p.planLibraries(vm, pkg, contentDir)...)

	if vm.AssetIndex != nil && vm.AssetIndex.URL != "" {
		tasks = append(tasks, model.DownloadTask{
			Sources:      p.assetIndexSources(vm),
			TargetPath:   filepath.Join(contentDir, "indexes", vm.AssetID+".json"),
			ExpectedHash: vm.AssetIndex.Hash,
			ExpectedSize: vm.AssetIndex.Size,
			Role:         model.RoleIndex,
		})
	}

	return tasks
}

// planLibraries enumerates every library artifact (main + matching
// natives classifier) applicable to this platform, per teacher's
// DownloadLibraries/shouldIncludeLibrary.
func (p *Planner) planLibraries(vm *model.VersionManifest, pkg *model.PackageManifest, contentDir string) []model.DownloadTask {
	os_ := osName()
	nk := nativesKey()
	libDir := filepath.Join(contentDir, "libraries")

	var tasks []model.DownloadTask
	for _, lib := range vm.Libraries {
		for _, art := range model.GetAllArtifacts(lib, os_, nk) {
			if art.Path == "" {
				continue
			}
			tasks = append(tasks, model.DownloadTask{
				Sources:      p.librarySources(pkg, art),
				TargetPath:   filepath.Join(libDir, filepath.FromSlash(art.Path)),
				ExpectedHash: art.Hash,
				ExpectedSize: art.Size,
				Role:         model.RoleLibrary,
			})
		}
	}
	return tasks
}

// clientJarSources implements spec §4.5's client-jar source list: the
// artifact's own canonical URL is the primary entry, with an optional
// customVersionsSource mirror (suffixed "<id>-client.jar") ordered per the
// usual customSourcesFirst flag.
func (p *Planner) clientJarSources(jar model.Artifact, versionID string) []string {
	list := []string{jar.URL}
	if custom, ok := p.Cfg.Get(config.KeyCustomVersionsSource); ok {
		if mirrored, err := sources.Suffix(versionID + "-client.jar")(custom); err == nil {
			if config.CustomSourcesFirst(p.Cfg) {
				list = []string{mirrored, jar.URL}
			} else {
				list = append(list, mirrored)
			}
		}
	}
	return dedupe(list)
}

// librarySources implements spec §4.3 rule 5 for library artifacts: the
// manifest's own librariesUrl (if present) takes precedence over the
// configured primary/custom source list, which itself is rebased onto the
// artifact's relative path; the artifact's own canonical URL is the final
// fallback, since it is always resolvable for unmodified vanilla content.
func (p *Planner) librarySources(pkg *model.PackageManifest, art model.Artifact) []string {
	base := sources.Build(p.Cfg, config.KeyLibrariesSource, config.KeyCustomLibrariesSource, sources.Identity)
	rebased := sources.RebaseSuffix(base, art.Path)

	var manifestPrimary string
	if pkg != nil && pkg.LibrariesURL != nil {
		manifestPrimary = joinURL(pkg.LibrariesURL.String(), art.Path)
	}

	list := sources.Prepend(rebased, manifestPrimary)
	if art.URL != "" {
		list = append(list, art.URL)
	}
	return dedupe(list)
}

// assetIndexSources implements spec §4.3 for the asset-index document: the
// configured assetsSource value as is, plus the customAssetIndexesSource
// value joined with "<assetId>.json" (ordered by customSourcesFirst),
// falling back to the manifest-provided URL.
func (p *Planner) assetIndexSources(vm *model.VersionManifest) []string {
	base := sources.Build(p.Cfg, config.KeyAssetsSource, config.KeyCustomAssetIndexesSource, sources.Suffix(vm.AssetID+".json"))
	list := base
	if vm.AssetIndex.URL != "" {
		list = append(list, vm.AssetIndex.URL)
	}
	return dedupe(list)
}

// PlanAssets enumerates every asset object named by index into
// DownloadTasks, rooted under contentDir/assets/objects per spec §6's
// instance layout ("<launcherRoot>/assets/objects/<hash[0:2]>/<hash>").
// Split from Plan because the asset index itself must be fetched and
// parsed before these tasks can be built (C5/C6 boundary: the orchestrator
// fetches the index via the downloader, then calls back into PlanAssets).
func (p *Planner) PlanAssets(index *model.AssetsIndex, contentDir string) []model.DownloadTask {
	return p.planAssetsInto(index, filepath.Join(contentDir, "assets", "objects"))
}

// PlanMirrorAssets is PlanAssets for the mirror tree layout of spec §4.9,
// which has no "objects" segment ("assets/<hash[0:2]>/<hash>", not
// "assets/objects/<hash[0:2]>/<hash>") — a different on-disk convention
// than the instance layout PlanAssets targets, even though both walk the
// same AssetsIndex the same way.
func (p *Planner) PlanMirrorAssets(index *model.AssetsIndex, outputDir string) []model.DownloadTask {
	return p.planAssetsInto(index, filepath.Join(outputDir, "assets"))
}

func (p *Planner) planAssetsInto(index *model.AssetsIndex, objectsDir string) []model.DownloadTask {
	// index.Objects is a map; iterate logical names in sorted order so the
	// resulting plan is deterministic (spec §4.5: "the same inputs produce
	// the same plan in the same order"), not dependent on Go's randomized
	// map iteration.
	names := make([]string, 0, len(index.Objects))
	for name := range index.Objects {
		names = append(names, name)
	}
	sort.Strings(names)

	tasks := make([]model.DownloadTask, 0, len(names))
	for _, name := range names {
		asset := index.Objects[name]
		if len(asset.Hash) < 2 {
			continue
		}
		sub := asset.Hash[:2]
		tasks = append(tasks, model.DownloadTask{
			Sources:      p.assetObjectSources(sub, asset.Hash),
			TargetPath:   filepath.Join(objectsDir, sub, asset.Hash),
			ExpectedHash: asset.Hash,
			ExpectedSize: asset.Size,
			Role:         model.RoleAsset,
		})
	}
	return tasks
}

const mojangResourceBase = "https://resources.download.minecraft.net"

func (p *Planner) assetObjectSources(sub, hash string) []string {
	base := sources.Build(p.Cfg, config.KeyAssetsSource, config.KeyCustomAssetsSource, sources.Identity)
	rebased := sources.RebaseSuffix(base, sub+"/"+hash)
	list := append(rebased, mojangResourceBase+"/"+sub+"/"+hash)
	return dedupe(list)
}

func joinURL(base, suffix string) string {
	if len(base) == 0 {
		return suffix
	}
	if base[len(base)-1] == '/' {
		return base + suffix
	}
	return base + "/" + suffix
}

// dedupe drops empty entries and repeats while preserving order, so a
// fallback that happens to equal an earlier source isn't tried twice.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
