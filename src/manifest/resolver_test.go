package manifest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urixen-org/instancesync/src/config"
	"github.com/urixen-org/instancesync/src/httpclient"
	"github.com/urixen-org/instancesync/src/model"
)

func TestResolveFetchesRemoteManifest(t *testing.T) {
	const vmJSON = `{"id":"1.20.1","assets":"11","downloads":{"client":{"url":"https://piston.example.com/c.jar","sha1":"abc","size":1}},"libraries":[]}`
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/releases.json":
			json.NewEncoder(w).Encode(releaseList{Versions: []releaseEntry{{ID: "1.20.1", URL: srv.URL + "/1.20.1.json"}}})
		case "/1.20.1.json":
			w.Write([]byte(vmJSON))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := config.New()
	cfg.Set(config.KeyVersionManifestURL, srv.URL+"/releases.json")

	r := New(httpclient.New(5*time.Second), cfg)
	pkg := &model.PackageManifest{GameVersion: "1.20.1"}

	vm, err := r.Resolve(context.Background(), pkg, "")
	require.NoError(t, err)
	assert.Equal(t, "1.20.1", vm.ID)
	assert.Equal(t, "https://piston.example.com/c.jar", vm.Downloads["client"].URL)
}

func TestResolveRepairsEmbeddedManifestWithEmptyDownloads(t *testing.T) {
	const freshJSON = `{"id":"1.20.1","assets":"11","downloads":{"client":{"url":"https://piston.example.com/fresh.jar","sha1":"fresh","size":2}},"libraries":[]}`
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/releases.json":
			json.NewEncoder(w).Encode(releaseList{Versions: []releaseEntry{{ID: "1.20.1", URL: srv.URL + "/versions/1.20.1.json"}}})
		case "/versions/1.20.1.json":
			w.Write([]byte(freshJSON))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := config.New()
	cfg.Set(config.KeyVersionManifestURL, srv.URL+"/releases.json")

	r := New(httpclient.New(5*time.Second), cfg)

	embedded := &model.VersionManifest{
		ID:        "1.20.1",
		Libraries: []model.Library{{Name: "kept-library"}},
		Downloads: map[string]model.Artifact{},
	}
	pkg := &model.PackageManifest{GameVersion: "1.20.1", VersionManifest: embedded}

	vm, err := r.Resolve(context.Background(), pkg, "")
	require.NoError(t, err)
	assert.Equal(t, "https://piston.example.com/fresh.jar", vm.Downloads["client"].URL)
	require.Len(t, vm.Libraries, 1)
	assert.Equal(t, "kept-library", vm.Libraries[0].Name, "repair must not clobber the embedded Libraries list")
}

func TestResolveWritesVersionPathAtomically(t *testing.T) {
	const vmJSON = `{"id":"1.20.1","downloads":{"client":{"url":"https://piston.example.com/c.jar","sha1":"abc","size":1}},"libraries":[]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(vmJSON))
	}))
	defer srv.Close()

	cfg := config.New()
	r := New(httpclient.New(5*time.Second), cfg)

	dir := t.TempDir()
	out := filepath.Join(dir, "versions", "1.20.1", "1.20.1.json")

	embedded := &model.VersionManifest{
		ID:        "1.20.1",
		Downloads: map[string]model.Artifact{"client": {URL: "https://piston.example.com/c.jar", Hash: "abc", Size: 1}},
	}
	pkg := &model.PackageManifest{GameVersion: "1.20.1", VersionManifest: embedded}

	_, err := r.Resolve(context.Background(), pkg, out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "1.20.1")

	_, err = os.Stat(out + ".tmp")
	assert.Error(t, err, "temp file must be renamed away, not left behind")
}

func TestResolveNoSourcesConfigured(t *testing.T) {
	cfg := config.New()
	r := New(httpclient.New(5*time.Second), cfg)
	pkg := &model.PackageManifest{GameVersion: "1.20.1"}

	_, err := r.Resolve(context.Background(), pkg, "")
	assert.Error(t, err)
}
