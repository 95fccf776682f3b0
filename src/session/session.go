// Package session implements the C8 capability of spec §4.8: a Session sum
// type (Offline, with Microsoft left a stub per the "interfaces only"
// scoping of the auth subsystem) and deterministic offline UUID/access-
// token/session-token derivation.
//
// Grounded on spec §4.8's algorithm directly (no pack repo computes an
// offline Minecraft identity); github.com/google/uuid supplies the typed
// 128-bit value and canonical string formatting, matching design note 9's
// guidance to model the sum type as a small capability interface rather
// than a tagged struct.
package session

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/google/uuid"

	"github.com/urixen-org/instancesync/src/hashutil"
)

// Session is the identity/credential capability the runner collaborator
// consumes; its two variants are Offline (implemented here) and Microsoft
// (out of scope beyond this interface, per spec §1).
type Session interface {
	Username() string
	UUID() uuid.UUID
	AccessToken() string
	SessionToken() string
}

// Offline derives a deterministic identity from a username alone, with no
// network round-trip: the same username always yields the same UUID,
// access token, and session token.
type Offline struct {
	username     string
	id           uuid.UUID
	accessToken  string
	sessionToken string
}

// NewOffline derives an Offline session per spec §4.8:
//  1. uuid = MD5(username) reinterpreted as a 128-bit big-endian value.
//  2. accessToken = MD5(username + "_access"), hex-encoded.
//  3. sessionToken = "token:" + accessToken + ":" + uuid.
//
// The access token is a local, deterministic identifier, not a credential.
func NewOffline(username string) Offline {
	digest := hashutil.MD5Bytes([]byte(username))
	hi, lo := hashutil.MD5AsUUID(digest)
	id := uuidFromHalves(hi, lo)

	accessDigest := hashutil.MD5Bytes([]byte(username + "_access"))
	accessToken := hex.EncodeToString(accessDigest[:])

	return Offline{
		username:     username,
		id:           id,
		accessToken:  accessToken,
		sessionToken: "token:" + accessToken + ":" + id.String(),
	}
}

func (o Offline) Username() string     { return o.username }
func (o Offline) UUID() uuid.UUID      { return o.id }
func (o Offline) AccessToken() string  { return o.accessToken }
func (o Offline) SessionToken() string { return o.sessionToken }

func uuidFromHalves(hi, lo uint64) uuid.UUID {
	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], hi)
	binary.BigEndian.PutUint64(b[8:16], lo)
	return uuid.UUID(b)
}

// Microsoft is an out-of-scope Session variant: the real Microsoft/Xbox
// Live authentication flow lives in an external collaborator, per spec §1.
// This stub exists only so the Session sum type's shape is complete at the
// type level.
type Microsoft struct {
	username     string
	id           uuid.UUID
	accessToken  string
	sessionToken string
}

func (m Microsoft) Username() string     { return m.username }
func (m Microsoft) UUID() uuid.UUID      { return m.id }
func (m Microsoft) AccessToken() string  { return m.accessToken }
func (m Microsoft) SessionToken() string { return m.sessionToken }
