// Part of the C7 installer: the install-phase deferred action that
// extracts native libraries out of downloaded library JARs into a version's
// flat natives directory.
//
// Grounded on teacher's src/launcher/launcher.go extractJar/
// extractNativesFromLibraries, adapted from a launch-time side effect into
// an install-phase step run once per resolved version (spec §4.7's
// "install phase" runs deferred actions gathered while planning/downloading,
// before the instance record is committed).
package installer

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/urixen-org/instancesync/src/fsutil"
	"github.com/urixen-org/instancesync/src/xerrors"
)

var nativeSuffixes = []string{".dll", ".so", ".dylib", ".jnilib"}

func isNativeFile(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range nativeSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// extractJar extracts every native library entry from jarPath into destDir,
// flattening the archive's internal directory structure and skipping
// META-INF and entries that already exist on disk.
func extractJar(jarPath, destDir string) error {
	r, err := zip.OpenReader(jarPath)
	if err != nil {
		return xerrors.Wrap(xerrors.ErrIO, err.Error())
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "META-INF/") || !isNativeFile(f.Name) {
			continue
		}

		destPath := filepath.Join(destDir, filepath.Base(f.Name))
		if fsutil.FileExists(destPath) {
			continue
		}

		if err := extractEntry(f, destPath); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(f *zip.File, destPath string) error {
	rc, err := f.Open()
	if err != nil {
		return xerrors.Wrap(xerrors.ErrIO, err.Error())
	}
	defer rc.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return xerrors.Wrap(xerrors.ErrIO, err.Error())
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return xerrors.Wrap(xerrors.ErrIO, err.Error())
	}
	return nil
}

// nativePattern returns the filename fragment that identifies a library JAR
// as carrying this platform's natives, ported from teacher's
// extractNativesFromLibraries.
func nativePattern() (string, error) {
	switch runtime.GOOS {
	case "windows":
		return "natives-windows", nil
	case "darwin":
		return "natives-osx", nil
	case "linux":
		return "natives-linux", nil
	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// extractNatives walks libDir recursively, extracting every JAR whose name
// matches this platform's native pattern into nativesDir. It is idempotent:
// a nativesDir that already contains at least one native file is left
// untouched.
func extractNatives(libDir, nativesDir string) error {
	if err := fsutil.EnsureDir(nativesDir); err != nil {
		return xerrors.Wrap(xerrors.ErrIO, err.Error())
	}

	if alreadyExtracted(nativesDir) {
		return nil
	}

	pattern, err := nativePattern()
	if err != nil {
		return err
	}

	walkErr := filepath.Walk(libDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.HasSuffix(info.Name(), ".jar") {
			return nil
		}
		lower := strings.ToLower(info.Name())
		if !strings.Contains(lower, pattern) {
			return nil
		}
		return extractJar(path, nativesDir)
	})
	if walkErr != nil {
		return walkErr
	}

	if !alreadyExtracted(nativesDir) {
		return fmt.Errorf("no native libraries were extracted from %s: %w", libDir, xerrors.ErrIO)
	}
	return nil
}

func alreadyExtracted(nativesDir string) bool {
	entries, err := os.ReadDir(nativesDir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if isNativeFile(e.Name()) {
			return true
		}
	}
	return false
}
