// Package digest computes the durable store's primary-index key digest: a
// fixed-width 128-bit cryptographic hash of the key bytes, stable across
// process restarts.
//
// MD5 (stdlib crypto/md5) is used rather than a third-party hash: no
// retrieved example repo ships a 128-bit cryptographic digest library, and
// the original system this design is drawn from also uses MD5 for this
// exact purpose. md5 is unsuitable as a general-purpose cryptographic hash
// today, but the requirement here is a stable, collision-resistant-enough
// 128-bit index key, not a security boundary.
package digest

import "crypto/md5"

// Size is the digest width in bytes (128 bits).
const Size = md5.Size

// Key is a fixed-width 128-bit key digest, usable as a map key and directly
// as BLOB(16) durable-store index material.
type Key [Size]byte

// Of computes the digest of key bytes. The same key always produces the
// same digest across process restarts.
func Of(key []byte) Key {
	return md5.Sum(key)
}

// OfString is a convenience wrapper for string keys.
func OfString(key string) Key {
	return Of([]byte(key))
}

// Bytes returns the digest as a byte slice, suitable for binding to a
// BLOB(16) statement parameter.
func (k Key) Bytes() []byte {
	return k[:]
}
