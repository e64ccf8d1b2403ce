// Package files is the file-hashing collaborator: it turns game files into
// hex checksums that the games service stores as identity edges. Hashing
// large ROM/ISO files is CPU-bound, so callers must invoke it outside any
// storage transaction.
package files

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"golang.org/x/crypto/sha3"

	"playtime/internal/model"
)

// DefaultChunkSize is the read buffer size used when none is specified.
const DefaultChunkSize = 16 * 1024 * 1024

// newHash returns a fresh hash.Hash for the given algorithm.
func newHash(algorithm model.ChecksumAlgorithm) (hash.Hash, error) {
	switch algorithm {
	case model.SHA224:
		return sha256.New224(), nil
	case model.SHA256:
		return sha256.New(), nil
	case model.SHA384:
		return sha512.New384(), nil
	case model.SHA512:
		return sha512.New(), nil
	case model.SHA3_224:
		return sha3.New224(), nil
	case model.SHA3_256:
		return sha3.New256(), nil
	case model.SHA3_384:
		return sha3.New384(), nil
	case model.SHA3_512:
		return sha3.New512(), nil
	default:
		return nil, fmt.Errorf("unknown checksum algorithm: %q", algorithm)
	}
}

// Digest computes the hex checksum of the file at path, reading in
// chunkSize blocks. chunkSize <= 0 selects DefaultChunkSize.
func Digest(path string, algorithm model.ChecksumAlgorithm, chunkSize int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file for hashing: %w", err)
	}
	defer f.Close()

	return DigestReader(f, algorithm, chunkSize)
}

// DigestReader computes the hex checksum of everything readable from r.
func DigestReader(r io.Reader, algorithm model.ChecksumAlgorithm, chunkSize int) (string, error) {
	h, err := newHash(algorithm)
	if err != nil {
		return "", err
	}

	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("hashing data: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
