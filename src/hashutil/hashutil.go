// Package hashutil implements the C2 hash verifier capability of spec
// §4.2: streaming SHA-1 for download verification and MD5 for the offline
// session derivation of C8 (never the other way around).
package hashutil

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"io"
	"os"

	"github.com/urixen-org/instancesync/src/xerrors"
)

// chunkSize bounds how much of a file is held in memory at once; hashing
// never loads a full file, per spec §4.2.
const chunkSize = 64 * 1024

// SHA1File returns the hex-encoded SHA-1 digest of the file at path.
func SHA1File(path string) (string, error) {
	return hashFile(path, sha1.New())
}

func hashFile(path string, h hash.Hash) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", xerrors.Wrap(xerrors.ErrIO, err.Error())
	}
	defer f.Close()

	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", xerrors.Wrap(xerrors.ErrIO, err.Error())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MD5Bytes returns the raw 16-byte MD5 digest of data, used exclusively by
// the offline session derivation in src/session.
func MD5Bytes(data []byte) [16]byte {
	return md5.Sum(data)
}

// MD5AsUUID reinterprets an MD5 digest as a 128-bit big-endian value split
// into (high, low) 64-bit halves, per spec §4.8's offline UUID encoding.
func MD5AsUUID(digest [16]byte) (hi, lo uint64) {
	hi = binary.BigEndian.Uint64(digest[0:8])
	lo = binary.BigEndian.Uint64(digest[8:16])
	return hi, lo
}
