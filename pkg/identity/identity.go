// Package identity derives stable image identities and cache keys.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"strings"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
)

// ErrInvalidKey is returned for empty or malformed identities and cache keys
var ErrInvalidKey = errors.New("invalid image identity or cache key")

const versionSeparator = "@"

// thumbSize is the side of the thumbnail whose coarse colors join the difference hash
const thumbSize = 8

// FromImage identifies decoded pixels by their difference hash, a digest of
// a coarse color thumbnail and the dimensions. The difference hash only sees
// luminance gradients, so flat images of different colors need the thumbnail.
func FromImage(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("nil image: %w", ErrInvalidKey)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return "", fmt.Errorf("empty image: %w", ErrInvalidKey)
	}
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return "", fmt.Errorf("failed to hash image: %w", err)
	}
	return fmt.Sprintf("dhash:%016x-%s:%dx%d", hash.GetHash(), thumbDigest(img), b.Dx(), b.Dy()), nil
}

// thumbDigest hashes an 8x8 thumbnail quantized to 5 bits per channel
func thumbDigest(img image.Image) string {
	thumb := imaging.Resize(img, thumbSize, thumbSize, imaging.Box)
	buf := make([]byte, 0, len(thumb.Pix))
	for i := 0; i+3 < len(thumb.Pix); i += 4 {
		buf = append(buf, thumb.Pix[i]>>3, thumb.Pix[i+1]>>3, thumb.Pix[i+2]>>3)
	}
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:8])
}

// FromBytes identifies an encoded file by its content digest
func FromBytes(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty data: %w", ErrInvalidKey)
	}
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

// FromString accepts a host-provided identity such as an asset id
func FromString(id string) (string, error) {
	id = strings.TrimSpace(id)
	if err := validate(id); err != nil {
		return "", err
	}
	return "id:" + id, nil
}

func validate(id string) error {
	if id == "" {
		return fmt.Errorf("empty identity: %w", ErrInvalidKey)
	}
	if strings.Contains(id, versionSeparator) {
		return fmt.Errorf("identity %q contains %q: %w", id, versionSeparator, ErrInvalidKey)
	}
	if strings.ContainsAny(id, " \t\r\n") {
		return fmt.Errorf("identity %q contains whitespace: %w", id, ErrInvalidKey)
	}
	return nil
}

// Key combines an identity with the pipeline version
func Key(identity, pipelineVersion string) (string, error) {
	if err := validate(identity); err != nil {
		return "", err
	}
	if pipelineVersion == "" || strings.Contains(pipelineVersion, versionSeparator) {
		return "", fmt.Errorf("bad pipeline version %q: %w", pipelineVersion, ErrInvalidKey)
	}
	return identity + versionSeparator + pipelineVersion, nil
}

// Parse splits a cache key into identity and pipeline version
func Parse(key string) (string, string, error) {
	i := strings.LastIndex(key, versionSeparator)
	if i <= 0 || i == len(key)-1 {
		return "", "", fmt.Errorf("cache key %q: %w", key, ErrInvalidKey)
	}
	identity, version := key[:i], key[i+1:]
	if err := validate(identity); err != nil {
		return "", "", err
	}
	return identity, version, nil
}

// Seed turns a key into a deterministic number for template selection
func Seed(key string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return h.Sum64()
}
