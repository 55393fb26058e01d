package riff

import (
	"encoding/binary"
	"io"

	"github.com/coconutbird/ww2ogg-core/werr"
)

// HeaderMode selects which of the three Wwise packet-header layouts a
// data chunk uses. Endianness of the header fields always follows the
// container's RIFF/RIFX byte order.
type HeaderMode int

const (
	// HeaderModern is the 6-byte header: a 16-bit payload size followed
	// by a 32-bit granule position.
	HeaderModern HeaderMode = iota
	// HeaderModernNoGranule is the 2-byte header: a 16-bit payload size
	// only. Granule is always reported as 0 by the framer; the caller
	// synthesizes it from block sizes instead.
	HeaderModernNoGranule
	// HeaderLegacy is the 8-byte header used by header-triad streams: a
	// 32-bit payload size followed by a 32-bit granule position.
	HeaderLegacy
)

// HeaderModeFor picks the packet-header layout a Vorb's flags imply.
func HeaderModeFor(v *Vorb) HeaderMode {
	switch {
	case v.OldPacketHeaders:
		return HeaderLegacy
	case v.NoGranule:
		return HeaderModernNoGranule
	default:
		return HeaderModern
	}
}

func (m HeaderMode) size() int64 {
	switch m {
	case HeaderModern:
		return 6
	case HeaderModernNoGranule:
		return 2
	case HeaderLegacy:
		return 8
	default:
		return 0
	}
}

// PacketFrame locates one Wwise audio packet and its declared granule.
type PacketFrame struct {
	PayloadOffset uint32
	PayloadSize   uint32
	Granule       uint32 // 0 when the header mode carries no granule.
	NextOffset    uint32 // offset of the next packet's header.
}

// ReadPacketFrame frames the Wwise packet header at off, which must lie
// within [0, dataEnd). It fails with Parse if the header or its
// declared payload would overrun dataEnd.
func ReadPacketFrame(r io.ReaderAt, order binary.ByteOrder, mode HeaderMode, off, dataEnd uint32) (*PacketFrame, error) {
	hdrSize := mode.size()
	if int64(off)+hdrSize > int64(dataEnd) {
		return nil, werr.NewParse("packet header at offset %d overruns data chunk", off)
	}

	buf := make([]byte, hdrSize)
	if _, err := r.ReadAt(buf, int64(off)); err != nil {
		return nil, werr.NewParse("truncated packet header at offset %d: %s", off, err)
	}

	var size, granule uint32
	switch mode {
	case HeaderModern:
		size = uint32(order.Uint16(buf[0:2]))
		granule = order.Uint32(buf[2:6])
	case HeaderModernNoGranule:
		size = uint32(order.Uint16(buf[0:2]))
	case HeaderLegacy:
		size = order.Uint32(buf[0:4])
		granule = order.Uint32(buf[4:8])
	}

	payloadOff := off + uint32(hdrSize)
	if int64(payloadOff)+int64(size) > int64(dataEnd) {
		return nil, werr.NewParse("packet at offset %d declares size %d past data chunk", off, size)
	}

	return &PacketFrame{
		PayloadOffset: payloadOff,
		PayloadSize:   size,
		Granule:       granule,
		NextOffset:    payloadOff + size,
	}, nil
}
