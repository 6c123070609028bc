// Package phash computes perceptual fingerprints for near-duplicate
// image detection.
//
// A Fingerprint is a 64-bit average hash: the image is reduced to an 8x8
// luminance grid and each bit records whether the corresponding cell is at
// or above the grid mean. Visually similar images (re-encodes, mild crops,
// minor color shifts) produce fingerprints within a small Hamming distance.
package phash

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math/bits"
	"os"
	"strconv"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/webp"
)

// ErrDecode is returned when input bytes cannot be decoded as a raster image.
var ErrDecode = fmt.Errorf("phash: cannot decode image")

// Fingerprint is a 64-bit perceptual hash of an image's coarse visual content.
type Fingerprint uint64

// String returns the fingerprint as a 16-character lowercase hex string.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// Parse converts a hex string produced by [Fingerprint.String] back into a
// Fingerprint.
func Parse(s string) (Fingerprint, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("phash: invalid fingerprint %q: %w", s, err)
	}
	return Fingerprint(v), nil
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b Fingerprint) int {
	return bits.OnesCount64(uint64(a ^ b))
}

// FromImage computes the average-hash fingerprint of a decoded image.
func FromImage(img image.Image) (Fingerprint, error) {
	h, err := goimagehash.AverageHash(img)
	if err != nil {
		return 0, fmt.Errorf("phash: hash failed: %w", err)
	}
	return Fingerprint(h.GetHash()), nil
}

// FromReader decodes an image from r and computes its fingerprint.
// Identical input bytes always yield the identical fingerprint.
func FromReader(r io.Reader) (Fingerprint, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return FromImage(img)
}

// FromFile computes the fingerprint of the image stored at path.
func FromFile(path string) (Fingerprint, error) {
	f, err := os.Open(path) //nolint:gosec // caller-supplied path by design
	if err != nil {
		return 0, fmt.Errorf("phash: open %s: %w", path, err)
	}
	defer f.Close()
	return FromReader(f)
}
