// Package oggstream implements the Ogg page writer: an LSB-first bit
// sink (via package bitio) that segments its accumulated payload into
// Ogg pages, computing each page's CRC-32 and lacing values.
//
// An Ogg page is a 27-byte header, a segment (lacing) table, and a
// payload:
//
//	bytes 0-3:   "OggS" capture pattern
//	byte 4:      stream structure version, always 0
//	byte 5:      header type flags: bit0 continued, bit1 first page,
//	             bit2 last page
//	bytes 6-13:  granule position, little-endian
//	bytes 14-17: bitstream serial number, little-endian
//	bytes 18-21: page sequence number, little-endian
//	bytes 22-25: CRC-32, little-endian, computed with these 4 bytes
//	             zeroed
//	byte 26:     segment count s, 1 <= s <= 255
//	bytes 27..:  s lacing bytes, then the payload itself
package oggstream

import (
	"encoding/binary"
	"io"

	"github.com/coconutbird/ww2ogg-core/bitio"
)

const (
	pageHeaderBytes = 27
	maxPayloadBytes = 255 * 255

	flagContinued = 0x01
	flagFirstPage = 0x02
	flagLastPage  = 0x04

	// streamSerial is fixed: this module only ever produces a single
	// logical bitstream per conversion.
	streamSerial = 1
)

// PageWriter is an LSB-first bit sink that buffers a payload and
// emits it as Ogg pages on FlushPage. It implements the byteWriter
// interface bitio.Writer expects, so every full byte accumulated by
// bit-level writes is visible to the page-splitting logic immediately.
type PageWriter struct {
	out io.Writer
	bw  *bitio.Writer

	payload []byte
	granule uint64
	seq     uint32

	// pendingContinued is the "continued" header flag to apply to the
	// next page this writer emits, whether that emission is triggered
	// by an explicit FlushPage call or by the payload reaching
	// maxPayloadBytes mid-accumulation.
	pendingContinued bool
}

// NewPageWriter creates a PageWriter that emits completed pages to out.
func NewPageWriter(out io.Writer) *PageWriter {
	pw := &PageWriter{out: out}
	pw.bw = bitio.NewWriter(pw)
	return pw
}

// WriteByte implements the byteWriter interface consumed by
// bitio.Writer: each completed byte is appended to the pending
// payload, auto-emitting a maximal page if the payload has reached
// 255*255 bytes.
func (pw *PageWriter) WriteByte(b byte) error {
	pw.payload = append(pw.payload, b)
	if len(pw.payload) == maxPayloadBytes {
		if err := pw.emit(false); err != nil {
			return err
		}
		pw.payload = pw.payload[:0]
		pw.pendingContinued = true
	}
	return nil
}

// WriteBit packs a single LSB-first bit.
func (pw *PageWriter) WriteBit(bit uint32) error { return pw.bw.WriteBit(bit) }

// WriteBits packs the low n bits of v, n <= 32, LSB first.
func (pw *PageWriter) WriteBits(v uint32, n uint) error { return pw.bw.WriteBits(v, n) }

// SetGranule sets the granule position that will be written into the
// header of the next page this writer emits. The value is sticky
// across empty flushes: it is not reset by FlushPage.
func (pw *PageWriter) SetGranule(g uint64) { pw.granule = g }

// FlushPage aligns any partially-packed byte, and, if the accumulated
// payload is non-empty, emits exactly one Ogg page carrying it.
// nextContinued becomes the "continued" header flag of the page that
// follows this one. last marks this as the final page of the stream;
// it is only valid to pass true on the true last page of a conversion.
func (pw *PageWriter) FlushPage(nextContinued, last bool) error {
	if err := pw.bw.Flush(); err != nil {
		return err
	}
	if len(pw.payload) == 0 {
		return nil
	}
	if err := pw.emit(last); err != nil {
		return err
	}
	pw.payload = pw.payload[:0]
	pw.pendingContinued = nextContinued
	return nil
}

// Close flushes any buffered payload as a plain, non-final page. It
// never sets the last-page flag itself: that flag must be set by the
// orchestrator on the true final FlushPage call, so that a caller who
// forgets to close explicitly does not end up with a spurious empty
// final page stacked on top of a correctly-terminated stream.
func (pw *PageWriter) Close() error {
	return pw.FlushPage(false, false)
}

// emit writes the current payload as one page with the given last
// flag, using and then clearing pendingContinued.
func (pw *PageWriter) emit(last bool) error {
	segs := buildSegmentTable(len(pw.payload))
	headerLen := pageHeaderBytes + len(segs)
	buf := make([]byte, headerLen+len(pw.payload))

	copy(buf[0:4], "OggS")
	buf[4] = 0 // stream structure version

	headerType := byte(0)
	if pw.pendingContinued {
		headerType |= flagContinued
	}
	if pw.seq == 0 {
		headerType |= flagFirstPage
	}
	if last {
		headerType |= flagLastPage
	}
	buf[5] = headerType

	binary.LittleEndian.PutUint64(buf[6:14], pw.granule)
	binary.LittleEndian.PutUint32(buf[14:18], streamSerial)
	binary.LittleEndian.PutUint32(buf[18:22], pw.seq)
	// buf[22:26] (CRC) stays zero until computed below.
	buf[26] = byte(len(segs))
	copy(buf[27:], segs)
	copy(buf[headerLen:], pw.payload)

	crc := checksum(buf)
	binary.LittleEndian.PutUint32(buf[22:26], crc)

	if _, err := pw.out.Write(buf); err != nil {
		return err
	}
	pw.seq++
	pw.pendingContinued = false
	return nil
}

// buildSegmentTable returns the lacing values for a payload of length
// n, 0 < n <= maxPayloadBytes. A payload of exactly maxPayloadBytes is
// laced as 255 segments of 255 with no terminating entry; it must
// always be followed by a continued page. Any other length uses one
// 255-byte segment per full 255 bytes of payload, plus one final
// segment holding the remainder (which may be 0 when n is a non-zero
// multiple of 255 smaller than the maximum).
func buildSegmentTable(n int) []byte {
	if n == maxPayloadBytes {
		segs := make([]byte, 255)
		for i := range segs {
			segs[i] = 255
		}
		return segs
	}
	full := n / 255
	rem := n % 255
	segs := make([]byte, full+1)
	for i := 0; i < full; i++ {
		segs[i] = 255
	}
	segs[full] = byte(rem)
	return segs
}
