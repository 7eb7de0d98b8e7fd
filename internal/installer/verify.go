package installer

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/stencil-labs/stencil/internal/registry"
)

// ErrIntegrity is returned when a tarball does not match its published digest.
var ErrIntegrity = errors.New("integrity check failed")

var sriHashes = map[string]func() hash.Hash{
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha512": sha512.New,
}

// verify checks path against dist.Integrity, falling back to dist.Shasum.
// A tarball with neither is accepted.
func verify(path string, dist registry.Dist) error {
	checked := false
	for _, token := range strings.Fields(dist.Integrity) {
		algo, want, ok := strings.Cut(token, "-")
		newHash, known := sriHashes[algo]
		if !ok || !known {
			continue
		}
		// Options after "?" are allowed by SRI and carry no digest data.
		want, _, _ = strings.Cut(want, "?")
		got, err := digest(path, newHash)
		if err != nil {
			return err
		}
		if base64.StdEncoding.EncodeToString(got) != want {
			return fmt.Errorf("%w: %s digest mismatch", ErrIntegrity, algo)
		}
		checked = true
	}
	if checked || dist.Shasum == "" {
		return nil
	}

	got, err := digest(path, sha1.New)
	if err != nil {
		return err
	}
	if hex.EncodeToString(got) != strings.ToLower(dist.Shasum) {
		return fmt.Errorf("%w: shasum mismatch", ErrIntegrity)
	}
	return nil
}

func digest(path string, newHash func() hash.Hash) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive for checksum: %w", err)
	}
	defer f.Close()

	h := newHash()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("computing checksum: %w", err)
	}
	return h.Sum(nil), nil
}
