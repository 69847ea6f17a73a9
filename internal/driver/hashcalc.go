package driver

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest is a SHA-256 content hash.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports whether d was never computed.
func (d Digest) IsZero() bool { return d == Digest{} }

// hashBytes hashes one input document.
func hashBytes(data []byte) Digest {
	return Digest(sha256.Sum256(data))
}

// combineDigest: H(content || salt1 || salt2 ...). Salts come in a fixed order.
func combineDigest(content Digest, salts ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range salts {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// CacheKey identifies the compiled output of an input: its content hash
// salted with the compiler fingerprint, so a new compiler never reads
// output written by an old one.
func CacheKey(content []byte, fingerprint string) Digest {
	return combineDigest(hashBytes(content), hashBytes([]byte(fingerprint)))
}
