package convert

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/coconutbird/ww2ogg-core/bitio"
	"github.com/coconutbird/ww2ogg-core/codebook"
)

// buildRiff assembles a minimal RIFF/WAVE byte stream from an ordered
// list of (tag, payload) chunks, word-aligning each payload.
func buildRiff(order binary.ByteOrder, magic string, chunks [][2]interface{}) []byte {
	var body bytes.Buffer
	body.WriteString("WAVE")
	for _, c := range chunks {
		tag := c[0].(string)
		payload := c[1].([]byte)
		body.WriteString(tag)
		var sz [4]byte
		order.PutUint32(sz[:], uint32(len(payload)))
		body.Write(sz[:])
		body.Write(payload)
		if len(payload)%2 != 0 {
			body.WriteByte(0)
		}
	}

	var out bytes.Buffer
	out.WriteString(magic)
	var sz [4]byte
	order.PutUint32(sz[:], uint32(body.Len()))
	out.Write(sz[:])
	out.Write(body.Bytes())
	return out.Bytes()
}

func fmtChunk18(order binary.ByteOrder, channels uint16, sampleRate, avgBytesPerSec uint32) []byte {
	buf := make([]byte, 0x18)
	order.PutUint16(buf[0:2], 0xFFFF) // Wwise codec id
	order.PutUint16(buf[2:4], channels)
	order.PutUint32(buf[4:8], sampleRate)
	order.PutUint32(buf[8:12], avgBytesPerSec)
	order.PutUint16(buf[0x12:0x14], 0x06)
	return buf
}

func vorbChunk34(order binary.ByteOrder, sampleCount, setupOff, firstAudioOff, modSignal uint32, bs0, bs1 uint8) []byte {
	buf := make([]byte, 0x34)
	order.PutUint32(buf[0:4], sampleCount)
	order.PutUint32(buf[4:8], modSignal)
	order.PutUint32(buf[8:12], setupOff)
	order.PutUint32(buf[12:16], firstAudioOff)
	buf[20] = bs0
	buf[21] = bs1
	return buf
}

// buildStrippedSetupPacket writes a minimal stripped Wwise setup
// packet for a single mono stream with one inline codebook.
func buildStrippedSetupPacket(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	must := func(err error) {
		if err != nil {
			t.Fatalf("building fixture: %v", err)
		}
	}

	must(w.WriteBits(0, 8)) // codebook_count - 1

	must(w.WriteBits(1, 4))  // dimensions
	must(w.WriteBits(2, 14)) // entries
	must(w.WriteBit(0))      // ordered = 0
	must(w.WriteBits(1, 3))  // codeword_length_length
	must(w.WriteBit(0))      // sparse
	must(w.WriteBits(0, 1))  // length[0]
	must(w.WriteBits(0, 1))  // length[1]
	must(w.WriteBit(0))      // lookup type 0

	must(w.WriteBits(0, 5)) // floor1 partitions = 0
	must(w.WriteBits(0, 2)) // multiplier - 1
	must(w.WriteBits(0, 4)) // rangebits

	must(w.WriteBits(0, 2))  // residue type
	must(w.WriteBits(0, 24)) // begin
	must(w.WriteBits(0, 24)) // end
	must(w.WriteBits(0, 24)) // partition_size - 1
	must(w.WriteBits(0, 6))  // classifications - 1
	must(w.WriteBits(0, 8))  // classbook
	must(w.WriteBits(0, 3))  // cascade low
	must(w.WriteBit(0))      // cascade high flag

	must(w.WriteBit(0))     // submaps_flag
	must(w.WriteBit(0))     // square_polar_flag
	must(w.WriteBits(0, 2)) // reserved
	must(w.WriteBits(0, 8)) // time_config
	must(w.WriteBits(0, 8)) // floor_number
	must(w.WriteBits(0, 8)) // residue_number

	must(w.WriteBits(0, 6)) // mode_count - 1
	must(w.WriteBit(0))     // mode blockflag
	must(w.WriteBits(0, 8)) // mode mapping

	must(w.Flush())
	return buf.Bytes()
}

func audioPacketModern(order binary.ByteOrder, granule uint32, payload []byte) []byte {
	buf := make([]byte, 6+len(payload))
	order.PutUint16(buf[0:2], uint16(len(payload)))
	order.PutUint32(buf[2:6], granule)
	copy(buf[6:], payload)
	return buf
}

// smplChunk builds a minimal RIFF smpl chunk declaring exactly one
// sample loop [start, end) in the raw on-disk encoding parseLoop
// expects: end is stored as end-1, or 0 to mean "loop to the end of
// the stream".
func smplChunk(order binary.ByteOrder, rawStart, rawEnd uint32) []byte {
	buf := make([]byte, 36+24)
	order.PutUint32(buf[28:32], 1) // num_sample_loops
	order.PutUint32(buf[36+8:36+12], rawStart)
	order.PutUint32(buf[36+12:36+16], rawEnd)
	return buf
}

// legacyPacket frames payload with the 8-byte legacy header (32-bit
// size, 32-bit granule) used by header-triad-present streams.
func legacyPacket(order binary.ByteOrder, granule uint32, payload []byte) []byte {
	buf := make([]byte, 8+len(payload))
	order.PutUint32(buf[0:4], uint32(len(payload)))
	order.PutUint32(buf[4:8], granule)
	copy(buf[8:], payload)
	return buf
}

// vorbChunk28 builds a header-triad-present vorb chunk (size 0x28):
// riff.parseVorb reads only its first 22 bytes (prefix, uid, block-size
// exponents), but the chunk must still be declared at its real size
// for the size-class dispatch to recognize it as triad-present.
func vorbChunk28(order binary.ByteOrder, sampleCount, modSignal uint32, bs0, bs1 uint8) []byte {
	buf := make([]byte, 0x28)
	order.PutUint32(buf[0:4], sampleCount)
	order.PutUint32(buf[4:8], modSignal)
	buf[20] = bs0
	buf[21] = bs1
	return buf
}

// buildPassthroughSetupBody writes the portion of a header-triad setup
// packet that follows its "\x05vorbis" signature: codebook_count-1,
// then one already-standard (non-stripped) Vorbis codebook -
// dimensions=1, entries=1, unordered, not sparse, a single 5-bit
// length, and lookup type 0 - which setup.Rewrite's full-setup path
// feeds through codebook.Copy.
func buildPassthroughSetupBody(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	must := func(err error) {
		if err != nil {
			t.Fatalf("building fixture: %v", err)
		}
	}

	must(w.WriteBits(0, 8)) // codebook_count - 1

	must(w.WriteBits(0x564342, 24)) // codebook sync pattern
	must(w.WriteBits(1, 16))        // dimensions
	must(w.WriteBits(1, 24))        // entries
	must(w.WriteBit(0))             // ordered = 0
	must(w.WriteBit(0))             // sparse = 0
	must(w.WriteBits(0, 5))         // length[0]
	must(w.WriteBits(0, 4))         // lookup type 0

	must(w.Flush())
	return buf.Bytes()
}

func TestConvertSynthesizedTriadProducesOggStream(t *testing.T) {
	order := binary.LittleEndian
	setupPacket := buildStrippedSetupPacket(t)

	pkt1 := audioPacketModern(order, 100, []byte{0xAB, 0xCD, 0xEF})
	pkt2 := audioPacketModern(order, 0xFFFFFFFF, []byte{0x11, 0x22})
	dataBuf := append(append(append([]byte{}, setupPacket...), pkt1...), pkt2...)

	fmtBuf := fmtChunk18(order, 1, 48000, 12000)
	vorbBuf := vorbChunk34(order, 1000, 0, uint32(len(setupPacket)), 0x4A, 8, 11)

	raw := buildRiff(order, "RIFF", [][2]interface{}{
		{"fmt ", fmtBuf},
		{"vorb", vorbBuf},
		{"data", dataBuf},
	})

	lib, err := codebook.Parse([]byte{0, 0, 0, 0})
	if err != nil {
		t.Fatalf("codebook.Parse: %v", err)
	}

	var out bytes.Buffer
	n, err := Convert(bytes.NewReader(raw), int64(len(raw)), &out, Options{
		InlineCodebooks: true,
		Library:         lib,
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if n != int64(out.Len()) {
		t.Errorf("Convert returned %d, but wrote %d bytes", n, out.Len())
	}

	b := out.Bytes()
	if len(b) < 4 || string(b[0:4]) != "OggS" {
		t.Fatalf("output does not start with an Ogg page: %x", b[:min(4, len(b))])
	}

	pageCount := bytes.Count(b, []byte("OggS"))
	if pageCount != 5 { // ID, comment, setup, and two audio packets
		t.Errorf("got %d Ogg pages, want 5", pageCount)
	}

	lastPageHeaderType := lastPageFlag(t, b)
	if lastPageHeaderType&0x04 == 0 {
		t.Error("final page does not have the last-page flag set")
	}
}

// lastPageFlag scans a byte stream for "OggS" page captures and
// returns the header type byte of the final page found.
func lastPageFlag(t *testing.T, b []byte) byte {
	t.Helper()
	var last byte
	for i := 0; i+27 <= len(b); i++ {
		if string(b[i:i+4]) == "OggS" {
			last = b[i+5]
		}
	}
	return last
}

func TestConvertEmitsLoopCommentsFromSmplChunk(t *testing.T) {
	order := binary.LittleEndian
	setupPacket := buildStrippedSetupPacket(t)

	pkt1 := audioPacketModern(order, 100, []byte{0xAB, 0xCD, 0xEF})
	dataBuf := append(append([]byte{}, setupPacket...), pkt1...)

	fmtBuf := fmtChunk18(order, 1, 48000, 12000)
	vorbBuf := vorbChunk34(order, 1000, 0, uint32(len(setupPacket)), 0x4A, 8, 11)
	smplBuf := smplChunk(order, 10, 99) // rawEnd=99 -> LoopEnd=100

	raw := buildRiff(order, "RIFF", [][2]interface{}{
		{"fmt ", fmtBuf},
		{"vorb", vorbBuf},
		{"smpl", smplBuf},
		{"data", dataBuf},
	})

	lib, err := codebook.Parse([]byte{0, 0, 0, 0})
	if err != nil {
		t.Fatalf("codebook.Parse: %v", err)
	}

	var out bytes.Buffer
	if _, err := Convert(bytes.NewReader(raw), int64(len(raw)), &out, Options{
		InlineCodebooks: true,
		Library:         lib,
	}); err != nil {
		t.Fatalf("Convert: %v", err)
	}

	b := out.Bytes()
	if !bytes.Contains(b, []byte("LoopStart=10")) {
		t.Error("output does not contain \"LoopStart=10\"")
	}
	if !bytes.Contains(b, []byte("LoopEnd=100")) {
		t.Error("output does not contain \"LoopEnd=100\"")
	}
	if bytes.Contains(b, []byte("LOOPSTART")) || bytes.Contains(b, []byte("LOOPEND")) {
		t.Error("output contains all-caps LOOPSTART/LOOPEND, want mixed-case LoopStart/LoopEnd")
	}
}

func TestConvertPassthroughTriadCopiesHeaderVerbatim(t *testing.T) {
	order := binary.LittleEndian

	idPayload := []byte{0x01, 'v', 'o', 'r', 'b', 'i', 's', 0xDE, 0xAD, 0xBE, 0xEF}
	commentPayload := []byte{0x03, 'v', 'o', 'r', 'b', 'i', 's', 0xCA, 0xFE}
	var setupPayload []byte
	setupPayload = append(setupPayload, setupPacketSignature[:]...)
	setupPayload = append(setupPayload, buildPassthroughSetupBody(t)...)
	audioPayload := []byte{0x99, 0x88, 0x77}

	var dataBuf []byte
	dataBuf = append(dataBuf, legacyPacket(order, 0, idPayload)...)
	dataBuf = append(dataBuf, legacyPacket(order, 0, commentPayload)...)
	dataBuf = append(dataBuf, legacyPacket(order, 0, setupPayload)...)
	dataBuf = append(dataBuf, legacyPacket(order, 500, audioPayload)...)

	fmtBuf := fmtChunk18(order, 1, 48000, 12000)
	vorbBuf := vorbChunk28(order, 1000, 0x4A, 8, 11)

	raw := buildRiff(order, "RIFF", [][2]interface{}{
		{"fmt ", fmtBuf},
		{"vorb", vorbBuf},
		{"data", dataBuf},
	})

	var out bytes.Buffer
	n, err := Convert(bytes.NewReader(raw), int64(len(raw)), &out, Options{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if n != int64(out.Len()) {
		t.Errorf("Convert returned %d, but wrote %d bytes", n, out.Len())
	}

	b := out.Bytes()
	pageCount := bytes.Count(b, []byte("OggS"))
	if pageCount != 4 { // ID, comment, setup, one audio packet
		t.Errorf("got %d Ogg pages, want 4", pageCount)
	}

	if !bytes.Contains(b, idPayload) {
		t.Error("output does not contain the ID packet bytes verbatim, want passthrough copy")
	}
	if !bytes.Contains(b, commentPayload) {
		t.Error("output does not contain the comment packet bytes verbatim, want passthrough copy")
	}

	lastPageHeaderType := lastPageFlag(t, b)
	if lastPageHeaderType&0x04 == 0 {
		t.Error("final page does not have the last-page flag set")
	}
}
