// Package crypto provides content digests for attachment integrity checks.
package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
)

// Digest reads content to the end and returns its sha256 hex digest and size.
func Digest(content io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, content)
	if err != nil {
		return "", 0, fmt.Errorf("failed to digest content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// DigestBytes returns the sha256 hex digest of b.
func DigestBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// VerifyDigest reads content and compares its digest against want.
func VerifyDigest(content io.Reader, want string) error {
	if want == "" {
		return fmt.Errorf("no digest to verify against")
	}
	got, _, err := Digest(content)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return fmt.Errorf("digest mismatch: content does not match recorded checksum")
	}
	return nil
}
