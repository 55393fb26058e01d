package audio

import (
	"encoding/binary"
	"io"

	"github.com/coconutbird/ww2ogg-core/riff"
	"github.com/coconutbird/ww2ogg-core/werr"
)

// frameIterator walks the Wwise packet frames in a data chunk with a
// single-slot lookahead buffer, so the audio rewriter can derive a
// packet's window-transition bits from the mode of the packet that
// follows it without otherwise threading shared mutable state through
// the rewrite loop.
type frameIterator struct {
	r       io.ReaderAt
	order   binary.ByteOrder
	mode    riff.HeaderMode
	dataEnd uint32

	next      uint32
	lookahead *riff.PacketFrame
}

func newFrameIterator(r io.ReaderAt, order binary.ByteOrder, mode riff.HeaderMode, start, dataEnd uint32) *frameIterator {
	return &frameIterator{r: r, order: order, mode: mode, dataEnd: dataEnd, next: start}
}

func (it *frameIterator) fetch() (*riff.PacketFrame, error) {
	if it.next >= it.dataEnd {
		return nil, nil
	}
	f, err := riff.ReadPacketFrame(it.r, it.order, it.mode, it.next, it.dataEnd)
	if err != nil {
		return nil, err
	}
	it.next = f.NextOffset
	return f, nil
}

// Next returns the next frame in sequence, or nil once the data chunk
// is exhausted.
func (it *frameIterator) Next() (*riff.PacketFrame, error) {
	if it.lookahead != nil {
		f := it.lookahead
		it.lookahead = nil
		return f, nil
	}
	return it.fetch()
}

// peekFirstPayloadByte returns the first payload byte of the frame
// that follows the one last returned by Next, without consuming it.
// It returns nil if the stream has ended or that frame is empty.
func (it *frameIterator) peekFirstPayloadByte() ([]byte, error) {
	if it.lookahead == nil {
		f, err := it.fetch()
		if err != nil {
			return nil, err
		}
		it.lookahead = f
	}
	f := it.lookahead
	if f == nil || f.PayloadSize == 0 {
		return nil, nil
	}
	var b [1]byte
	if _, err := it.r.ReadAt(b[:], int64(f.PayloadOffset)); err != nil {
		return nil, werr.NewParse("truncated audio packet payload at offset %d: %s", f.PayloadOffset, err)
	}
	return b[:], nil
}
