package hashutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSHA1File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "artifact.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	digest, err := SHA1File(path)
	require.NoError(t, err)
	assert.Equal(t, "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed", digest)
}

func TestSHA1FileMissing(t *testing.T) {
	_, err := SHA1File(filepath.Join(t.TempDir(), "nope.bin"))
	assert.Error(t, err)
}

func TestMD5AsUUIDRoundTrip(t *testing.T) {
	digest := MD5Bytes([]byte("Notch"))
	hi, lo := MD5AsUUID(digest)

	var rebuilt [16]byte
	for i := 0; i < 8; i++ {
		rebuilt[i] = byte(hi >> uint(56-8*i))
		rebuilt[8+i] = byte(lo >> uint(56-8*i))
	}
	assert.Equal(t, digest, rebuilt)
}
