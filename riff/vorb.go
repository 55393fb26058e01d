package riff

import (
	"encoding/binary"
	"io"

	"github.com/coconutbird/ww2ogg-core/werr"
)

// Standard mod-signal values at vorb+4 that mean "this is a standard,
// non-mod-packets stream". Any other value at that offset means the
// stream uses Wwise's "mod packets" audio framing.
var standardModSignals = map[uint32]bool{
	0x4A: true, 0x4B: true, 0x69: true, 0x70: true,
}

// vorbPrefixBytes is the size of the fields common to every vorb
// layout this package recognizes: sample count, mod signal,
// setup packet offset, first audio packet offset.
const vorbPrefixBytes = 16

// vorbExtendedBytes is the length of the field layout read from every
// vorb, real or fmt-embedded virtual: the common prefix followed by
// the uid and block-size exponents.
const vorbExtendedBytes = vorbPrefixBytes + 6 // + uid(4) + blocksize0_pow(1) + blocksize1_pow(1)

// Vorb is the decoded vorb chunk (or its fmt-embedded equivalent).
type Vorb struct {
	// Size is the vorb chunk's declared byte size, or -1 if there was
	// no vorb chunk and these fields were synthesized from a fmt_size
	// 0x42 fmt chunk's embedded fields.
	Size int

	SampleCount            uint32
	SetupPacketOffset      uint32
	FirstAudioPacketOffset uint32
	UID                    uint32
	Blocksize0Pow          uint8
	Blocksize1Pow          uint8

	NoGranule          bool
	ModPackets         bool
	HeaderTriadPresent bool
	OldPacketHeaders   bool
}

func parseVorb(r io.ReaderAt, order binary.ByteOrder, f *Format, ref ChunkRef, hasVorb bool) (*Vorb, error) {
	var off int64
	var size int

	switch {
	case hasVorb:
		switch ref.Size {
		case 0x28, 0x2A, 0x2C, 0x32, 0x34:
		default:
			return nil, werr.NewParse("unsupported vorb chunk size %#x", ref.Size)
		}
		off = int64(ref.Offset)
		size = int(ref.Size)
	case f.Size == 0x42:
		// No vorb chunk: the vorb-equivalent fields are embedded in
		// the fmt chunk at fmt_offset + 0x18 (synthesized "virtual"
		// vorb of size -1).
		off = int64(f.ChunkOffset) + 0x18
		size = -1
	default:
		return nil, werr.NewParse("no vorb chunk and fmt chunk does not embed one")
	}

	buf := make([]byte, vorbExtendedBytes)
	if _, err := r.ReadAt(buf, off); err != nil {
		return nil, werr.NewParse("truncated vorb fields: %s", err)
	}

	v := &Vorb{
		Size:                   size,
		SampleCount:            order.Uint32(buf[0:4]),
		SetupPacketOffset:      order.Uint32(buf[8:12]),
		FirstAudioPacketOffset: order.Uint32(buf[12:16]),
		UID:                    order.Uint32(buf[16:20]),
		Blocksize0Pow:          buf[20],
		Blocksize1Pow:          buf[21],
	}
	modSignal := order.Uint32(buf[4:8])

	v.NoGranule = size == -1 || size == 0x2A
	v.ModPackets = !standardModSignals[modSignal]
	v.HeaderTriadPresent = size == 0x28 || size == 0x2C
	v.OldPacketHeaders = size == 0x28 || size == 0x2C

	return v, nil
}
