package codebook

import (
	_ "embed"
	"encoding/binary"
	"sync"

	"github.com/coconutbird/ww2ogg-core/werr"
)

// Library is an indexed store of pre-stripped codebooks: a byte blob
// plus an offset table at its tail. Codebook i occupies
// [offsets[i], offsets[i+1]). An empty library (one that resolves to
// zero valid indices) is a legitimate input and signals "codebooks are
// inline in the file being converted."
type Library struct {
	data    []byte
	offsets []uint32
}

// Parse reads a codebook library from its on-disk representation: a
// concatenation of per-codebook byte ranges followed by a little-
// endian int32 offset table, whose start offset is given by the last
// 4 bytes of data.
func Parse(data []byte) (*Library, error) {
	if len(data) < 4 {
		return nil, werr.NewParse("codebook library shorter than its trailing offset pointer")
	}
	tableOffset := binary.LittleEndian.Uint32(data[len(data)-4:])
	if int64(tableOffset) > int64(len(data))-4 {
		return nil, werr.NewParse("codebook library offset table start %d is out of range", tableOffset)
	}

	table := data[tableOffset:]
	if len(table)%4 != 0 {
		return nil, werr.NewParse("codebook library offset table is not a whole number of int32s")
	}

	n := len(table) / 4
	offsets := make([]uint32, n)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint32(table[i*4:])
	}
	return &Library{data: data, offsets: offsets}, nil
}

// Count reports how many codebooks this library indexes.
func (l *Library) Count() int {
	if len(l.offsets) == 0 {
		return 0
	}
	return len(l.offsets) - 1
}

// Entry returns the raw byte range of codebook i, to be read with a
// bit reader and passed to Rebuild along with its byte length.
func (l *Library) Entry(i int) ([]byte, error) {
	if i < 0 || i >= l.Count() {
		return nil, werr.NewInvalidCodebookID(i)
	}
	start, end := l.offsets[i], l.offsets[i+1]
	if end < start || int64(end) > int64(len(l.data)) {
		return nil, werr.NewParse("codebook %d has an invalid offset range", i)
	}
	return l.data[start:end], nil
}

//go:embed assets/default.bin
var embeddedDefaultBytes []byte

//go:embed assets/aotuv.bin
var embeddedAoTuVBytes []byte

// loadDefault and loadAoTuV parse the embedded libraries at most once,
// regardless of how many conversions request them.
var (
	loadDefault = sync.OnceValues(func() (*Library, error) { return Parse(embeddedDefaultBytes) })
	loadAoTuV   = sync.OnceValues(func() (*Library, error) { return Parse(embeddedAoTuVBytes) })
)

// EmbeddedDefault returns the built-in default codebook library.
func EmbeddedDefault() (*Library, error) { return loadDefault() }

// EmbeddedAoTuV returns the built-in aoTuV-tuned codebook library, a
// drop-in alternative a caller retries with on a Codebook-family
// conversion failure.
func EmbeddedAoTuV() (*Library, error) { return loadAoTuV() }
