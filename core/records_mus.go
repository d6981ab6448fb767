package core

import (
	"time"

	com "github.com/mus-format/common-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the variable-length records. ID, ChunkMode and
// Checkpoint are generated into records_mus.gen.go by cmd/musgen. Field
// order is the wire order; append new fields at the end only.
var (
	VectorMUS     = vectorMUS{}
	ChunkMUS      = chunkMUS{}
	FileRecordMUS = fileRecordMUS{}
)

const (
	float32Size = 4

	// minChunkSize is the smallest encoded Chunk: one byte per varint
	// field, an empty text and an empty embedding.
	minChunkSize = 8
)

// fits reports whether count elements of at least elemSize bytes can be
// decoded from the rest of bs.
func fits(count, elemSize int, rest []byte) bool {
	return count <= len(rest)/elemSize
}

type vectorMUS struct{}

func (vectorMUS) Marshal(v Vector, bs []byte) (n int) {
	n = varint.PositiveInt.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

// Unmarshal rejects a length larger than the remaining bytes can hold
// with com.ErrTooLargeLength before allocating.
func (vectorMUS) Unmarshal(bs []byte) (v Vector, n int, err error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, com.ErrNegativeLength
	}
	if length == 0 {
		return nil, n, nil
	}
	if !fits(length, float32Size, bs[n:]) {
		return nil, n, com.ErrTooLargeLength
	}
	v = make(Vector, length)
	var n1 int
	for i := range v {
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (vectorMUS) Size(v Vector) int {
	return varint.PositiveInt.Size(len(v)) + len(v)*float32Size
}

func (s vectorMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}

// FileRecord timestamps are stored as Unix microseconds; 0 encodes the
// zero time.
func timeToMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func microToTime(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}

type chunkMUS struct{}

func (chunkMUS) Marshal(c Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(c.Id, bs)
	n += IDMUS.Marshal(c.SourceFileId, bs[n:])
	n += ord.String.Marshal(c.Text, bs[n:])
	n += varint.Int.Marshal(c.StartLine, bs[n:])
	n += varint.Int.Marshal(c.EndLine, bs[n:])
	n += varint.Int.Marshal(c.Overlap, bs[n:])
	n += VectorMUS.Marshal(c.Embedding, bs[n:])
	n += ChunkModeMUS.Marshal(c.Mode, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var n1 int
	if c.Id, n1, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	n += n1
	if c.SourceFileId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.StartLine, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.EndLine, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.Overlap, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.Embedding, n1, err = VectorMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.Mode, n1, err = ChunkModeMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	return c, n, nil
}

func (chunkMUS) Size(c Chunk) (size int) {
	size = IDMUS.Size(c.Id)
	size += IDMUS.Size(c.SourceFileId)
	size += ord.String.Size(c.Text)
	size += varint.Int.Size(c.StartLine)
	size += varint.Int.Size(c.EndLine)
	size += varint.Int.Size(c.Overlap)
	size += VectorMUS.Size(c.Embedding)
	size += ChunkModeMUS.Size(c.Mode)
	return size
}

func (s chunkMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}

type fileRecordMUS struct{}

func (fileRecordMUS) Marshal(f FileRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(f.Id, bs)
	n += ord.String.Marshal(f.Path, bs[n:])
	n += ChunkModeMUS.Marshal(f.Mode, bs[n:])
	n += varint.PositiveInt.Marshal(len(f.Chunks), bs[n:])
	for i := range f.Chunks {
		n += ChunkMUS.Marshal(f.Chunks[i], bs[n:])
	}
	n += VectorMUS.Marshal(f.Centroid, bs[n:])
	n += VectorMUS.Marshal(f.NameVector, bs[n:])
	n += varint.Int64.Marshal(timeToMicro(f.InsertedAt), bs[n:])
	n += varint.Int64.Marshal(timeToMicro(f.UpdatedAt), bs[n:])
	return n
}

// Unmarshal bounds the chunk count by the remaining bytes the same way
// vectorMUS bounds vector lengths.
func (fileRecordMUS) Unmarshal(bs []byte) (f FileRecord, n int, err error) {
	var n1 int
	if f.Id, n1, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	n += n1
	if f.Path, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if f.Mode, n1, err = ChunkModeMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var count int
	if count, n1, err = varint.PositiveInt.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if count < 0 {
		err = com.ErrNegativeLength
		return
	}
	if !fits(count, minChunkSize, bs[n:]) {
		err = com.ErrTooLargeLength
		return
	}
	if count > 0 {
		f.Chunks = make([]Chunk, count)
		for i := range f.Chunks {
			if f.Chunks[i], n1, err = ChunkMUS.Unmarshal(bs[n:]); err != nil {
				return
			}
			n += n1
		}
	}
	if f.Centroid, n1, err = VectorMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if f.NameVector, n1, err = VectorMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var us int64
	if us, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	f.InsertedAt = microToTime(us)
	if us, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	f.UpdatedAt = microToTime(us)
	return f, n, nil
}

func (fileRecordMUS) Size(f FileRecord) (size int) {
	size = IDMUS.Size(f.Id)
	size += ord.String.Size(f.Path)
	size += ChunkModeMUS.Size(f.Mode)
	size += varint.PositiveInt.Size(len(f.Chunks))
	for i := range f.Chunks {
		size += ChunkMUS.Size(f.Chunks[i])
	}
	size += VectorMUS.Size(f.Centroid)
	size += VectorMUS.Size(f.NameVector)
	size += varint.Int64.Size(timeToMicro(f.InsertedAt))
	size += varint.Int64.Size(timeToMicro(f.UpdatedAt))
	return size
}

func (s fileRecordMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}
