package riff

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/coconutbird/ww2ogg-core/werr"
)

// wwiseCodecID is the sentinel codec ID Wwise stamps into the fmt
// chunk in place of a real WAVE_FORMAT tag.
const wwiseCodecID = 0xFFFF

// fmtGUID is the 16-byte signature present in the 0x28-byte fmt
// layout. Its exact semantic is not otherwise documented; this is
// treated as a literal signature check only.
var fmtGUID = [16]byte{
	0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
	0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71,
}

// Format is the decoded fmt chunk.
type Format struct {
	Size           uint16 // the chunk's declared size; selects the layout below.
	Channels       uint16
	SampleRate     uint32
	AvgBytesPerSec uint32

	// ChunkOffset is the file offset of the first byte of this chunk's
	// payload, needed when Size == 0x42 to locate the vorb-equivalent
	// fields embedded at ChunkOffset+0x18.
	ChunkOffset uint32
}

func parseFormat(r io.ReaderAt, order binary.ByteOrder, ref ChunkRef) (*Format, error) {
	switch ref.Size {
	case 0x12, 0x18, 0x28, 0x42:
	default:
		return nil, werr.NewParse("unsupported fmt chunk size %#x", ref.Size)
	}

	buf := make([]byte, ref.Size)
	if _, err := r.ReadAt(buf, int64(ref.Offset)); err != nil {
		return nil, werr.NewParse("truncated fmt chunk: %s", err)
	}

	codecID := order.Uint16(buf[0:2])
	if codecID != wwiseCodecID {
		return nil, werr.NewParse("unexpected fmt codec id %#x, want %#x", codecID, wwiseCodecID)
	}

	f := &Format{
		Size:           uint16(ref.Size),
		Channels:       order.Uint16(buf[2:4]),
		SampleRate:     order.Uint32(buf[4:8]),
		AvgBytesPerSec: order.Uint32(buf[8:12]),
		ChunkOffset:    ref.Offset,
	}
	// buf[12:14] block align, buf[14:16] bits/sample: both 0 for Wwise
	// Vorbis fmt chunks and not otherwise consumed.

	if ref.Size >= 0x14 {
		extraSize := order.Uint16(buf[0x12:0x14])
		wantExtra := uint16(ref.Size) - 0x12
		if extraSize != wantExtra {
			return nil, werr.NewParse(
				"fmt extra size %d does not match chunk size %#x", extraSize, ref.Size)
		}
	}

	if ref.Size == 0x28 {
		if !bytes.Equal(buf[0x14:0x24], fmtGUID[:]) {
			return nil, werr.NewParse("fmt chunk missing expected GUID signature")
		}
	}

	return f, nil
}
