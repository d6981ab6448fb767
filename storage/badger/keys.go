package badger

import (
	"encoding/binary"
	"strconv"

	"github.com/poiesic/filehawk/core"
)

// Key prefixes for different data types
const (
	fileRecordPrefix = "filrec"
	fileTermPrefix   = "filterm"
	checkpointPrefix = "chkpt"
)

// makeFileKey generates a key for a file record by ID.
// Format: prefix:id, with the ID in BigEndian so keys sort by ID.
func makeFileKey(id core.ID) []byte {
	prefix := fileRecordPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// fileKeyPrefix is the common prefix of every file record key.
func fileKeyPrefix() []byte {
	return []byte(fileRecordPrefix + ":")
}

// makeTermPrefix generates the posting prefix for a term under a mode.
// Format: prefix:mode:term:
func makeTermPrefix(mode core.ChunkMode, term string) []byte {
	return []byte(fileTermPrefix + ":" + strconv.Itoa(int(mode)) + ":" + term + ":")
}

// makeTermKey generates a posting key recording that a file contains a term.
// Format: prefix:mode:term:fileID
func makeTermKey(mode core.ChunkMode, term string, id core.ID) []byte {
	prefix := makeTermPrefix(mode, term)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeCheckpointKey generates a key for the checkpoint of a path.
func makeCheckpointKey(path string) []byte {
	return []byte(checkpointPrefix + ":" + path)
}
