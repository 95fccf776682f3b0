package downloader

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urixen-org/instancesync/src/httpclient"
	"github.com/urixen-org/instancesync/src/model"
)

func sha1Hex(data string) string {
	sum := sha1.Sum([]byte(data))
	return hex.EncodeToString(sum[:])
}

func TestRunDownloadsAndVerifies(t *testing.T) {
	const body = "client jar contents"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	dir := t.TempDir()
	target := filepath.Join(dir, "client.jar")
	task := model.DownloadTask{
		Sources:      []string{srv.URL},
		TargetPath:   target,
		ExpectedHash: sha1Hex(body),
		Role:         model.RoleJAR,
	}

	d := New(httpclient.New(5 * time.Second))
	err := d.Run(context.Background(), []model.DownloadTask{task}, Options{})
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
}

func TestRunSkipsAlreadyValidFile(t *testing.T) {
	const body = "already downloaded"
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(body))
	}))
	defer srv.Close()

	dir := t.TempDir()
	target := filepath.Join(dir, "asset.bin")
	require.NoError(t, os.WriteFile(target, []byte(body), 0o644))

	task := model.DownloadTask{
		Sources:      []string{srv.URL},
		TargetPath:   target,
		ExpectedHash: sha1Hex(body),
	}

	d := New(httpclient.New(5 * time.Second))
	require.NoError(t, d.Run(context.Background(), []model.DownloadTask{task}, Options{}))
	assert.Equal(t, 0, requests, "a hash-valid existing file must not trigger any network request")
}

func TestRunFallsBackToSecondSourceOnHashMismatch(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("wrong content"))
	}))
	defer bad.Close()

	const good = "correct content"
	goodSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(good))
	}))
	defer goodSrv.Close()

	dir := t.TempDir()
	target := filepath.Join(dir, "lib.jar")
	task := model.DownloadTask{
		Sources:      []string{bad.URL, goodSrv.URL},
		TargetPath:   target,
		ExpectedHash: sha1Hex(good),
	}

	d := New(httpclient.New(5 * time.Second))
	require.NoError(t, d.Run(context.Background(), []model.DownloadTask{task}, Options{}))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, good, string(data))
}

func TestRunNoSourcesErrors(t *testing.T) {
	dir := t.TempDir()
	task := model.DownloadTask{TargetPath: filepath.Join(dir, "x.bin")}

	d := New(httpclient.New(5 * time.Second))
	err := d.Run(context.Background(), []model.DownloadTask{task}, Options{})
	assert.Error(t, err)
}

func TestRunBestEffortContinuesPastFailure(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer okSrv.Close()

	dir := t.TempDir()
	tasks := []model.DownloadTask{
		{Sources: []string{failing.URL}, TargetPath: filepath.Join(dir, "bad.bin"), ExpectedHash: sha1Hex("whatever")},
		{Sources: []string{okSrv.URL}, TargetPath: filepath.Join(dir, "good.bin"), ExpectedHash: sha1Hex("ok")},
	}

	d := New(httpclient.New(5 * time.Second))
	errs := d.RunBestEffort(context.Background(), tasks, Options{})
	require.Len(t, errs, 1)

	_, err := os.Stat(filepath.Join(dir, "good.bin"))
	assert.NoError(t, err)
}

type fakeReporter struct {
	mu        sync.Mutex
	fractions []float64
}

func (f *fakeReporter) Report(fraction float64, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fractions = append(f.fractions, fraction)
}

func (f *fakeReporter) last() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fractions[len(f.fractions)-1]
}

// TestRunWeighsProgressByExpectedSize pins spec §4.6's weighting rule: a
// huge task and a tiny one must not each count as "half" of the plan just
// because there are two tasks.
func TestRunWeighsProgressByExpectedSize(t *testing.T) {
	const bigBody = "big artifact body"
	const smallBody = "s"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/big":
			w.Write([]byte(bigBody))
		default:
			w.Write([]byte(smallBody))
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	tasks := []model.DownloadTask{
		{Sources: []string{srv.URL + "/big"}, TargetPath: filepath.Join(dir, "big.bin"), ExpectedHash: sha1Hex(bigBody), ExpectedSize: 999},
		{Sources: []string{srv.URL + "/small"}, TargetPath: filepath.Join(dir, "small.bin"), ExpectedHash: sha1Hex(smallBody), ExpectedSize: 1},
	}

	reporter := &fakeReporter{}
	d := New(httpclient.New(5 * time.Second))
	require.NoError(t, d.Run(context.Background(), tasks, Options{Concurrency: 1, Reporter: reporter}))

	require.Len(t, reporter.fractions, 2)
	// Whichever task ran first, its own weight (not 1/2) must be the
	// reported fraction after it completes.
	first := reporter.fractions[0]
	assert.True(t, first == 999.0/1000.0 || first == 1.0/1000.0, "unexpected intermediate fraction %v", first)
	assert.Equal(t, 1.0, reporter.last())
}

func TestRunDedupesDuplicateTargetPaths(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte("once"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	target := filepath.Join(dir, "shared.bin")
	task := model.DownloadTask{Sources: []string{srv.URL}, TargetPath: target, ExpectedHash: sha1Hex("once")}

	d := New(httpclient.New(5 * time.Second))
	require.NoError(t, d.Run(context.Background(), []model.DownloadTask{task, task, task}, Options{}))
	assert.Equal(t, 1, requests)
}
