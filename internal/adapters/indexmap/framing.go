package indexmap

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"

	"github.com/cespare/xxhash/v2"
)

// Every record on disk is framed as
//
//	[uint32 LE payload length][uint64 LE xxhash64(payload)][payload]
//
// A frame that is cut short or fails its checksum marks the end of the
// committed region: it is either being written right now or was left behind by
// a crashed writer.
const (
	frameHeaderSize = 4 + 8
	maxPayloadSize  = 64 << 20
)

func appendFrame(buf, payload []byte) []byte {
	var hdr [frameHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(payload))) //nolint:gosec // bounded by maxPayloadSize
	binary.LittleEndian.PutUint64(hdr[4:12], xxhash.Sum64(payload))
	buf = append(buf, hdr[:]...)
	return append(buf, payload...)
}

// tailState describes what follows the last complete frame.
type tailState uint8

const (
	tailClean tailState = iota
	tailPartial
	tailCorrupt
)

func (t tailState) String() string {
	switch t {
	case tailPartial:
		return "partial record"
	case tailCorrupt:
		return "checksum mismatch"
	default:
		return "clean"
	}
}

// readFrames calls fn for every complete frame in r. It returns the number of
// bytes consumed by complete frames and what stopped the read.
func readFrames(r io.Reader, fn func(payload []byte) error) (consumed int64, tail tailState, err error) {
	br := bufio.NewReader(r)
	var hdr [frameHeaderSize]byte
	for {
		n, err := io.ReadFull(br, hdr[:])
		if errors.Is(err, io.EOF) {
			return consumed, tailClean, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			if n > 0 {
				return consumed, tailPartial, nil
			}
			return consumed, tailClean, nil
		}
		if err != nil {
			return consumed, tailClean, err
		}

		size := binary.LittleEndian.Uint32(hdr[0:4])
		if size > maxPayloadSize {
			return consumed, tailCorrupt, nil
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(br, payload); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return consumed, tailPartial, nil
			}
			return consumed, tailClean, err
		}
		if xxhash.Sum64(payload) != binary.LittleEndian.Uint64(hdr[4:12]) {
			return consumed, tailCorrupt, nil
		}

		if err := fn(payload); err != nil {
			return consumed, tailClean, err
		}
		consumed += int64(frameHeaderSize) + int64(size)
	}
}
