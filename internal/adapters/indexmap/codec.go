package indexmap

import (
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"go.trai.ch/kiln/internal/core/domain"
)

type urlRecord struct {
	Type uint8  `msgpack:"t"`
	Path string `msgpack:"p"`
	ID   []byte `msgpack:"id"`
}

type contentRecord struct {
	Path string `msgpack:"p"`
	ID   []byte `msgpack:"id"`
}

type resultRecord struct {
	Fingerprint []byte      `msgpack:"fp"`
	Outputs     []urlRecord `msgpack:"out"`
	Inputs      []urlRecord `msgpack:"in"`
}

type historyRecord struct {
	ID        []byte    `msgpack:"id"`
	BuilderID []byte    `msgpack:"builder"`
	Mode      uint8     `msgpack:"mode"`
	Started   time.Time `msgpack:"started"`
	Finished  time.Time `msgpack:"finished"`
	Code      uint8     `msgpack:"code"`
	Steps     int       `msgpack:"steps"`
	Succeeded int       `msgpack:"ok"`
	UpToDate  int       `msgpack:"cached"`
	Failed    int       `msgpack:"failed"`
	Cancelled int       `msgpack:"cancelled"`
	Skipped   int       `msgpack:"skipped"`
}

// ContentCodec encodes content index records.
type ContentCodec struct{}

// Encode implements Codec.
func (ContentCodec) Encode(path string, id domain.ObjectID) ([]byte, error) {
	return msgpack.Marshal(contentRecord{Path: path, ID: id[:]})
}

// Decode implements Codec.
func (ContentCodec) Decode(payload []byte) (string, domain.ObjectID, error) {
	var rec contentRecord
	if err := msgpack.Unmarshal(payload, &rec); err != nil {
		return "", domain.EmptyObjectID, err
	}
	id, err := domain.ObjectIDFromBytes(rec.ID)
	return rec.Path, id, err
}

// ResultCodec encodes command result records.
type ResultCodec struct{}

// Encode implements Codec.
func (ResultCodec) Encode(fp domain.Fingerprint, result *domain.CommandResult) ([]byte, error) {
	if result == nil {
		result = domain.NewCommandResult()
	}
	rec := resultRecord{
		Fingerprint: fp[:],
		Outputs:     encodeURLMap(result.OutputObjects, result.SortedOutputs()),
		Inputs:      encodeURLMap(result.InputDependencyVersions, result.SortedInputs()),
	}
	return msgpack.Marshal(rec)
}

// Decode implements Codec.
func (ResultCodec) Decode(payload []byte) (domain.Fingerprint, *domain.CommandResult, error) {
	var rec resultRecord
	var fp domain.Fingerprint
	if err := msgpack.Unmarshal(payload, &rec); err != nil {
		return fp, nil, err
	}
	copy(fp[:], rec.Fingerprint)

	result := domain.NewCommandResult()
	if err := decodeURLMap(rec.Outputs, result.OutputObjects); err != nil {
		return fp, nil, err
	}
	if err := decodeURLMap(rec.Inputs, result.InputDependencyVersions); err != nil {
		return fp, nil, err
	}
	return fp, result, nil
}

// HistoryCodec encodes build history records.
type HistoryCodec struct{}

// Encode implements Codec.
func (HistoryCodec) Encode(_ struct{}, r domain.BuildRecord) ([]byte, error) {
	return msgpack.Marshal(historyRecord{
		ID:        r.ID[:],
		BuilderID: r.BuilderID[:],
		Mode:      uint8(r.Mode),
		Started:   r.Started,
		Finished:  r.Finished,
		Code:      uint8(r.Code),
		Steps:     r.Steps,
		Succeeded: r.Succeeded,
		UpToDate:  r.UpToDate,
		Failed:    r.Failed,
		Cancelled: r.Cancelled,
		Skipped:   r.Skipped,
	})
}

// Decode implements Codec.
func (HistoryCodec) Decode(payload []byte) (struct{}, domain.BuildRecord, error) {
	var rec historyRecord
	if err := msgpack.Unmarshal(payload, &rec); err != nil {
		return struct{}{}, domain.BuildRecord{}, err
	}
	id, err := uuid.FromBytes(rec.ID)
	if err != nil {
		return struct{}{}, domain.BuildRecord{}, err
	}
	builder, err := uuid.FromBytes(rec.BuilderID)
	if err != nil {
		return struct{}{}, domain.BuildRecord{}, err
	}
	return struct{}{}, domain.BuildRecord{
		ID:        id,
		BuilderID: builder,
		Mode:      domain.BuildMode(rec.Mode),
		Started:   rec.Started,
		Finished:  rec.Finished,
		Code:      domain.BuildResultCode(rec.Code),
		Steps:     rec.Steps,
		Succeeded: rec.Succeeded,
		UpToDate:  rec.UpToDate,
		Failed:    rec.Failed,
		Cancelled: rec.Cancelled,
		Skipped:   rec.Skipped,
	}, nil
}

func encodeURLMap(m map[domain.ObjectURL]domain.ObjectID, order []domain.ObjectURL) []urlRecord {
	out := make([]urlRecord, 0, len(order))
	for _, u := range order {
		id := m[u]
		out = append(out, urlRecord{Type: uint8(u.Type), Path: u.Path.String(), ID: id[:]})
	}
	return out
}

func decodeURLMap(recs []urlRecord, into map[domain.ObjectURL]domain.ObjectID) error {
	for _, r := range recs {
		id, err := domain.ObjectIDFromBytes(r.ID)
		if err != nil {
			return err
		}
		u := domain.ObjectURL{Type: domain.URLType(r.Type), Path: domain.NewInternedString(r.Path)}
		into[u] = id
	}
	return nil
}
