package core

import (
	"errors"
	"testing"
)

func validChunk() Chunk {
	return Chunk{
		StartLine: 1,
		EndLine:   10,
		Text:      "some text",
		Embedding: Vector{0.1, 0.2, 0.3},
		Mode:      ChunkModeGist,
	}
}

func TestValidateFileRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  *FileRecord
		wantErr error
	}{
		{
			name: "valid record",
			record: &FileRecord{
				Path:     "a.md",
				Mode:     ChunkModeGist,
				Chunks:   []Chunk{validChunk()},
				Centroid: Vector{0.1, 0.2, 0.3},
			},
			wantErr: nil,
		},
		{
			name: "valid record without embeddings",
			record: &FileRecord{
				Path:   "a.md",
				Mode:   ChunkModePinpoint,
				Chunks: []Chunk{{StartLine: 1, EndLine: 1, Mode: ChunkModePinpoint}},
			},
			wantErr: nil,
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: ErrInvalidFileRecord,
		},
		{
			name:    "empty path",
			record:  &FileRecord{Mode: ChunkModeGist},
			wantErr: ErrEmptyPath,
		},
		{
			name:    "invalid mode",
			record:  &FileRecord{Path: "a.md", Mode: 7},
			wantErr: ErrInvalidChunkMode,
		},
		{
			name: "mixed chunk dimensions",
			record: &FileRecord{
				Path: "a.md",
				Mode: ChunkModeGist,
				Chunks: []Chunk{
					validChunk(),
					{StartLine: 6, EndLine: 12, Overlap: 5, Embedding: Vector{1}, Mode: ChunkModeGist},
				},
				Centroid: Vector{0.1, 0.2, 0.3},
			},
			wantErr: ErrDimensionMismatch,
		},
		{
			name: "centroid dimension mismatch",
			record: &FileRecord{
				Path:     "a.md",
				Mode:     ChunkModeGist,
				Chunks:   []Chunk{validChunk()},
				Centroid: Vector{0.1},
			},
			wantErr: ErrDimensionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFileRecord(tt.record)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateFileRecord() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateFileRecord() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   Chunk
		wantErr error
	}{
		{name: "valid", chunk: validChunk()},
		{name: "single line", chunk: Chunk{StartLine: 4, EndLine: 4, Mode: ChunkModePinpoint}},
		{name: "zero start", chunk: Chunk{StartLine: 0, EndLine: 4, Mode: ChunkModeGist}, wantErr: ErrInvalidLineRange},
		{name: "inverted", chunk: Chunk{StartLine: 5, EndLine: 4, Mode: ChunkModeGist}, wantErr: ErrInvalidLineRange},
		{name: "overlap covers chunk", chunk: Chunk{StartLine: 1, EndLine: 3, Overlap: 3, Mode: ChunkModeGist}, wantErr: ErrInvalidLineRange},
		{name: "negative overlap", chunk: Chunk{StartLine: 1, EndLine: 3, Overlap: -1, Mode: ChunkModeGist}, wantErr: ErrInvalidLineRange},
		{name: "no mode", chunk: Chunk{StartLine: 1, EndLine: 3}, wantErr: ErrInvalidChunkMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(&tt.chunk)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidChunk) {
				t.Errorf("ValidateChunk() error = %v, want ErrInvalidChunk", err)
			}
		})
	}
}
