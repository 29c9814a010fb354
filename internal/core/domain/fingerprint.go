package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"io"
	"slices"
)

// Fingerprint is the cache key of a command: its kind, its serialized
// parameters and the version of every input it depends on.
type Fingerprint [sha256.Size]byte

// String returns the lowercase hex form of the fingerprint.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// IsZero reports whether the fingerprint is unset.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

type fingerprintInput struct {
	url     ObjectURL
	version ObjectID
}

// FingerprintBuilder assembles a Fingerprint field by field.
// Every variable-length field is length-prefixed so that distinct
// parameter sets cannot collide by concatenation.
type FingerprintBuilder struct {
	kind   string
	params hash.Hash
	inputs []fingerprintInput
}

// NewFingerprintBuilder starts a fingerprint for a command of the given kind.
func NewFingerprintBuilder(kind string) *FingerprintBuilder {
	return &FingerprintBuilder{
		kind:   kind,
		params: sha256.New(),
	}
}

// Parameters returns the writer that receives the command's serialized parameters.
func (b *FingerprintBuilder) Parameters() io.Writer {
	return b.params
}

// AddInput records the version observed for an input URL.
// Order does not matter; inputs are sorted before hashing.
func (b *FingerprintBuilder) AddInput(url ObjectURL, version ObjectID) {
	b.inputs = append(b.inputs, fingerprintInput{url: url, version: version})
}

// Sum returns the fingerprint.
func (b *FingerprintBuilder) Sum() Fingerprint {
	inputs := slices.Clone(b.inputs)
	slices.SortFunc(inputs, func(x, y fingerprintInput) int {
		return x.url.Compare(y.url)
	})
	inputs = slices.CompactFunc(inputs, func(x, y fingerprintInput) bool {
		return x.url == y.url
	})

	h := sha256.New()
	writeField(h, []byte(b.kind))
	writeField(h, b.params.Sum(nil))
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(inputs)))
	_, _ = h.Write(n[:])
	for _, in := range inputs {
		_, _ = h.Write([]byte{byte(in.url.Type)})
		writeField(h, []byte(in.url.Path.String()))
		_, _ = h.Write(in.version[:])
	}

	var f Fingerprint
	copy(f[:], h.Sum(nil))
	return f
}

func writeField(h hash.Hash, b []byte) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(b)))
	_, _ = h.Write(n[:])
	_, _ = h.Write(b)
}
