package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"go.trai.ch/zerr"
)

// ObjectIDSize is the width of an ObjectID in bytes.
const ObjectIDSize = sha256.Size

// ObjectID is the SHA-256 digest of a blob's content.
// The zero value is EmptyObjectID and is used as the not-found sentinel.
type ObjectID [ObjectIDSize]byte

// EmptyObjectID is the zero ObjectID.
var EmptyObjectID ObjectID

// ComputeObjectID returns the ObjectID of the given bytes.
func ComputeObjectID(data []byte) ObjectID {
	return ObjectID(sha256.Sum256(data))
}

// ObjectIDFromBytes converts a digest slice into an ObjectID.
func ObjectIDFromBytes(b []byte) (ObjectID, error) {
	var id ObjectID
	if len(b) != ObjectIDSize {
		return id, zerr.With(zerr.Wrap(ErrInvalidObjectID, "decode object id"), "length", len(b))
	}
	copy(id[:], b)
	return id, nil
}

// ParseObjectID parses the lowercase hex form produced by String.
func ParseObjectID(s string) (ObjectID, error) {
	var id ObjectID
	if len(s) != hex.EncodedLen(ObjectIDSize) {
		return id, zerr.With(zerr.Wrap(ErrInvalidObjectID, "parse object id"), "value", s)
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, zerr.With(zerr.Wrap(errors.Join(ErrInvalidObjectID, err), "parse object id"), "value", s)
	}
	return id, nil
}

// String returns the lowercase hex encoding of the id.
func (id ObjectID) String() string {
	return hex.EncodeToString(id[:])
}

// Short returns an abbreviated hex form for log output.
func (id ObjectID) Short() string {
	return id.String()[:12]
}

// IsEmpty reports whether id is the zero value.
func (id ObjectID) IsEmpty() bool {
	return id == EmptyObjectID
}

// Compare orders ids by their bytes.
func (id ObjectID) Compare(other ObjectID) int {
	return bytes.Compare(id[:], other[:])
}

// MarshalText implements encoding.TextMarshaler.
func (id ObjectID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ObjectID) UnmarshalText(text []byte) error {
	parsed, err := ParseObjectID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
