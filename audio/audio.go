// Package audio implements the Wwise audio packet rewriter: per-packet
// granule synthesis for granule-less streams, and reconstruction of
// the packet-type and window-transition bits that Wwise's "mod
// packets" framing omits.
package audio

import (
	"encoding/binary"
	"io"

	"github.com/coconutbird/ww2ogg-core/riff"
	"github.com/coconutbird/ww2ogg-core/werr"
)

// bitSink is the subset of oggstream.PageWriter's contract the
// rewriter needs: bit packing plus per-page granule and flush control.
type bitSink interface {
	WriteBit(bit uint32) error
	WriteBits(v uint32, n uint) error
	SetGranule(g uint64)
	FlushPage(nextContinued, last bool) error
}

// Rewriter drives the per-packet audio rewrite for one conversion.
type Rewriter struct {
	r     io.ReaderAt
	order binary.ByteOrder
	mode  riff.HeaderMode

	modPackets bool
	noGranule  bool

	blocksize0 uint32
	blocksize1 uint32

	modeBlockflag []bool
	modeBits      uint

	sampleCount uint32
}

// NewRewriter builds a Rewriter from the container fields that drive
// its framing and granule-synthesis policy.
func NewRewriter(
	r io.ReaderAt,
	order binary.ByteOrder,
	mode riff.HeaderMode,
	modPackets, noGranule bool,
	blocksize0Pow, blocksize1Pow uint8,
	modeBlockflag []bool,
	modeBits uint,
	sampleCount uint32,
) *Rewriter {
	return &Rewriter{
		r:             r,
		order:         order,
		mode:          mode,
		modPackets:    modPackets,
		noGranule:     noGranule,
		blocksize0:    uint32(1) << blocksize0Pow,
		blocksize1:    uint32(1) << blocksize1Pow,
		modeBlockflag: modeBlockflag,
		modeBits:      modeBits,
		sampleCount:   sampleCount,
	}
}

// Run rewrites every Wwise audio packet in [firstPacketOffset, dataEnd)
// to sink, one Ogg page per packet, flushing the final page with the
// last-page flag set.
func (rw *Rewriter) Run(firstPacketOffset, dataEnd uint32, sink bitSink) error {
	it := newFrameIterator(rw.r, rw.order, rw.mode, firstPacketOffset, dataEnd)

	var granuleAccum uint64
	var prevBlocksize uint32
	var prevWindowBlockflag bool
	first := true

	for {
		frame, err := it.Next()
		if err != nil {
			return err
		}
		if frame == nil {
			break
		}

		payload := make([]byte, frame.PayloadSize)
		if frame.PayloadSize > 0 {
			if _, err := rw.r.ReadAt(payload, int64(frame.PayloadOffset)); err != nil {
				return werr.NewParse("truncated audio packet payload at offset %d: %s", frame.PayloadOffset, err)
			}
		}

		isLast := frame.NextOffset == dataEnd

		granule := rw.granuleFor(frame, payload, isLast, &granuleAccum, &prevBlocksize, first)
		sink.SetGranule(granule)

		if err := rw.writeBody(sink, payload, it, &prevWindowBlockflag); err != nil {
			return err
		}

		if err := sink.FlushPage(false, isLast); err != nil {
			return err
		}

		first = false
		if isLast {
			break
		}
	}
	return nil
}

// granuleFor computes the granule position to stamp on the page
// carrying frame, updating the running synthesis state when the
// stream carries no source granule.
func (rw *Rewriter) granuleFor(frame *riff.PacketFrame, payload []byte, isLast bool, accum *uint64, prevBlocksize *uint32, first bool) uint64 {
	if !rw.noGranule {
		if frame.Granule == 0xFFFFFFFF {
			return 1
		}
		return uint64(frame.Granule)
	}

	modeNumber := peekModeNumber(payload, rw.modPackets, rw.modeBits)
	curr := rw.blocksize0
	if int(modeNumber) < len(rw.modeBlockflag) && rw.modeBlockflag[modeNumber] {
		curr = rw.blocksize1
	}

	if first {
		*prevBlocksize = curr
	} else {
		*accum += uint64(*prevBlocksize+curr) / 4
		*prevBlocksize = curr
	}

	if isLast && rw.sampleCount > 0 {
		return uint64(rw.sampleCount)
	}
	return *accum
}

// writeBody emits one packet's body: a verbatim byte copy when the
// stream is not mod_packets, or the reconstructed packet-type, mode,
// and window-transition bits otherwise.
func (rw *Rewriter) writeBody(sink bitSink, payload []byte, it *frameIterator, prevWindowBlockflag *bool) error {
	if !rw.modPackets {
		for _, b := range payload {
			if err := sink.WriteBits(uint32(b), 8); err != nil {
				return err
			}
		}
		return nil
	}

	if err := sink.WriteBit(0); err != nil { // packet type: audio
		return err
	}
	if len(payload) == 0 {
		return nil
	}

	first := uint32(payload[0])
	modeNumber := first & ((uint32(1) << rw.modeBits) - 1)
	if err := sink.WriteBits(modeNumber, rw.modeBits); err != nil {
		return err
	}
	remainingWidth := 8 - rw.modeBits
	remaining := first >> rw.modeBits

	blockflag := int(modeNumber) < len(rw.modeBlockflag) && rw.modeBlockflag[modeNumber]
	if blockflag {
		nextBlockflag, err := rw.peekNextBlockflag(it)
		if err != nil {
			return err
		}
		if err := sink.WriteBit(boolBit(*prevWindowBlockflag)); err != nil {
			return err
		}
		if err := sink.WriteBit(boolBit(nextBlockflag)); err != nil {
			return err
		}
	}
	*prevWindowBlockflag = blockflag

	if err := sink.WriteBits(remaining, remainingWidth); err != nil {
		return err
	}

	for _, b := range payload[1:] {
		if err := sink.WriteBits(uint32(b), 8); err != nil {
			return err
		}
	}
	return nil
}

func (rw *Rewriter) peekNextBlockflag(it *frameIterator) (bool, error) {
	nextFirst, err := it.peekFirstPayloadByte()
	if err != nil {
		return false, err
	}
	if nextFirst == nil {
		return false, nil
	}
	modeNumber := peekModeNumber(nextFirst, rw.modPackets, rw.modeBits)
	return int(modeNumber) < len(rw.modeBlockflag) && rw.modeBlockflag[modeNumber], nil
}

// peekModeNumber extracts the mode number from a packet's first byte:
// unshifted under mod_packets framing (which omits the packet-type
// bit entirely), shifted right by one otherwise (to skip the standard
// Vorbis packet-type bit).
func peekModeNumber(payload []byte, modPackets bool, modeBits uint) uint32 {
	if len(payload) == 0 || modeBits == 0 {
		return 0
	}
	v := uint32(payload[0])
	if !modPackets {
		v >>= 1
	}
	mask := (uint32(1) << modeBits) - 1
	return v & mask
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
