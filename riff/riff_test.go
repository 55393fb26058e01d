package riff

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildRiff assembles a minimal RIFF/WAVE byte stream from an ordered
// list of (tag, payload) chunks, word-aligning each payload as Parse
// expects.
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
	order.PutUint16(buf[0:2], wwiseCodecID)
	order.PutUint16(buf[2:4], channels)
	order.PutUint32(buf[4:8], sampleRate)
	order.PutUint32(buf[8:12], avgBytesPerSec)
	order.PutUint16(buf[0x12:0x14], 0x06) // extra size = 0x18-0x12
	return buf
}

func vorbChunk(order binary.ByteOrder, size int, sampleCount, setupOff, firstAudioOff, modSignal, uid uint32, bs0, bs1 uint8) []byte {
	buf := make([]byte, size)
	order.PutUint32(buf[0:4], sampleCount)
	order.PutUint32(buf[4:8], modSignal)
	order.PutUint32(buf[8:12], setupOff)
	order.PutUint32(buf[12:16], firstAudioOff)
	if size >= vorbExtendedBytes {
		order.PutUint32(buf[16:20], uid)
		buf[20] = bs0
		buf[21] = bs1
	}
	return buf
}

func TestParseMinimalHappyPath(t *testing.T) {
	order := binary.LittleEndian
	fmtBuf := fmtChunk18(order, 1, 48000, 12000)
	vorbBuf := vorbChunk(order, 0x34, 1000, 0, 26, 0x4A, 0, 8, 11)
	dataBuf := make([]byte, 26)

	raw := buildRiff(order, "RIFF", [][2]interface{}{
		{"fmt ", fmtBuf},
		{"vorb", vorbBuf},
		{"data", dataBuf},
	})

	ctn, err := Parse(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ctn.Fmt.Channels != 1 {
		t.Errorf("Channels = %d, want 1", ctn.Fmt.Channels)
	}
	if ctn.Fmt.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", ctn.Fmt.SampleRate)
	}
	if ctn.Vorb.SampleCount != 1000 {
		t.Errorf("SampleCount = %d, want 1000", ctn.Vorb.SampleCount)
	}
	if ctn.Vorb.NoGranule {
		t.Error("NoGranule = true, want false for vorb size 0x34")
	}
	if ctn.Vorb.ModPackets {
		t.Error("ModPackets = true, want false for standard mod signal 0x4A")
	}
	if ctn.DataSize != uint32(len(dataBuf)) {
		t.Errorf("DataSize = %d, want %d", ctn.DataSize, len(dataBuf))
	}
}

func TestParseRIFXBigEndian(t *testing.T) {
	order := binary.BigEndian
	fmtBuf := fmtChunk18(order, 2, 44100, 11000)
	vorbBuf := vorbChunk(order, 0x34, 2000, 0, 10, 0x69, 0, 8, 11)
	dataBuf := make([]byte, 10)

	raw := buildRiff(order, "RIFX", [][2]interface{}{
		{"fmt ", fmtBuf},
		{"vorb", vorbBuf},
		{"data", dataBuf},
	})

	ctn, err := Parse(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ctn.Fmt.Channels != 2 {
		t.Errorf("Channels = %d, want 2", ctn.Fmt.Channels)
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	raw := []byte("JUNK\x00\x00\x00\x00WAVE")
	if _, err := Parse(bytes.NewReader(raw), int64(len(raw))); err == nil {
		t.Error("Parse succeeded on invalid magic, want error")
	}
}

func TestParseRejectsMissingFmt(t *testing.T) {
	order := binary.LittleEndian
	raw := buildRiff(order, "RIFF", [][2]interface{}{
		{"data", make([]byte, 4)},
	})
	if _, err := Parse(bytes.NewReader(raw), int64(len(raw))); err == nil {
		t.Error("Parse succeeded without a fmt chunk, want error")
	}
}

func TestParseNoGranuleVirtualVorb(t *testing.T) {
	order := binary.LittleEndian
	fmtBuf := make([]byte, 0x42)
	order.PutUint16(fmtBuf[0:2], wwiseCodecID)
	order.PutUint16(fmtBuf[2:4], 1)
	order.PutUint32(fmtBuf[4:8], 48000)
	order.PutUint32(fmtBuf[8:12], 6000)
	order.PutUint16(fmtBuf[0x12:0x14], 0x30)
	// vorb-equivalent fields live at fmt payload offset 0x18.
	copy(fmtBuf[0x18:], vorbChunk(order, vorbExtendedBytes, 500, 0, 8, 0x99, 0, 8, 11))

	dataBuf := make([]byte, 8)
	raw := buildRiff(order, "RIFF", [][2]interface{}{
		{"fmt ", fmtBuf},
		{"data", dataBuf},
	})

	ctn, err := Parse(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !ctn.Vorb.NoGranule {
		t.Error("NoGranule = false, want true for fmt-embedded virtual vorb")
	}
	if !ctn.Vorb.ModPackets {
		t.Error("ModPackets = false, want true for non-standard mod signal 0x99")
	}
	if ctn.Vorb.Blocksize0Pow != 8 || ctn.Vorb.Blocksize1Pow != 11 {
		t.Errorf("block sizes = %d,%d, want 8,11", ctn.Vorb.Blocksize0Pow, ctn.Vorb.Blocksize1Pow)
	}
}

func TestParseSmplLoop(t *testing.T) {
	order := binary.LittleEndian
	fmtBuf := fmtChunk18(order, 1, 48000, 12000)
	vorbBuf := vorbChunk(order, 0x34, 4096, 0, 10, 0x4A, 0, 8, 11)
	dataBuf := make([]byte, 10)

	smplBuf := make([]byte, smplHeaderBytes+smplLoopRecordBytes)
	order.PutUint32(smplBuf[28:32], 1) // num loops
	rec := smplBuf[smplHeaderBytes:]
	order.PutUint32(rec[8:12], 1024) // loop start
	order.PutUint32(rec[12:16], 0)   // loop end == 0 -> sample_count

	raw := buildRiff(order, "RIFF", [][2]interface{}{
		{"fmt ", fmtBuf},
		{"vorb", vorbBuf},
		{"smpl", smplBuf},
		{"data", dataBuf},
	})

	ctn, err := Parse(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ctn.Loop == nil {
		t.Fatal("Loop = nil, want non-nil")
	}
	if ctn.Loop.Start != 1024 {
		t.Errorf("Loop.Start = %d, want 1024", ctn.Loop.Start)
	}
	if ctn.Loop.End != 4096 {
		t.Errorf("Loop.End = %d, want 4096 (normalized from 0)", ctn.Loop.End)
	}
}

func TestParseSmplRejectsMultipleLoops(t *testing.T) {
	order := binary.LittleEndian
	fmtBuf := fmtChunk18(order, 1, 48000, 12000)
	vorbBuf := vorbChunk(order, 0x34, 4096, 0, 10, 0x4A, 0, 8, 11)
	dataBuf := make([]byte, 10)

	smplBuf := make([]byte, smplHeaderBytes+smplLoopRecordBytes)
	order.PutUint32(smplBuf[28:32], 2) // num loops

	raw := buildRiff(order, "RIFF", [][2]interface{}{
		{"fmt ", fmtBuf},
		{"vorb", vorbBuf},
		{"smpl", smplBuf},
		{"data", dataBuf},
	})

	if _, err := Parse(bytes.NewReader(raw), int64(len(raw))); err == nil {
		t.Error("Parse succeeded with loop_count != 1, want error")
	}
}

func TestReadPacketFrameModern(t *testing.T) {
	order := binary.LittleEndian
	buf := make([]byte, 6+17)
	order.PutUint16(buf[0:2], 17)
	order.PutUint32(buf[2:6], 42)

	frame, err := ReadPacketFrame(bytes.NewReader(buf), order, HeaderModern, 0, uint32(len(buf)))
	if err != nil {
		t.Fatalf("ReadPacketFrame: %v", err)
	}
	if frame.PayloadOffset != 6 || frame.PayloadSize != 17 || frame.Granule != 42 {
		t.Errorf("frame = %+v, want offset=6 size=17 granule=42", frame)
	}
	if frame.NextOffset != 23 {
		t.Errorf("NextOffset = %d, want 23", frame.NextOffset)
	}
}

func TestReadPacketFrameModernNoGranule(t *testing.T) {
	order := binary.LittleEndian
	buf := make([]byte, 2+9)
	order.PutUint16(buf[0:2], 9)

	frame, err := ReadPacketFrame(bytes.NewReader(buf), order, HeaderModernNoGranule, 0, uint32(len(buf)))
	if err != nil {
		t.Fatalf("ReadPacketFrame: %v", err)
	}
	if frame.PayloadOffset != 2 || frame.PayloadSize != 9 || frame.Granule != 0 {
		t.Errorf("frame = %+v, want offset=2 size=9 granule=0", frame)
	}
}

func TestReadPacketFrameLegacy(t *testing.T) {
	order := binary.LittleEndian
	buf := make([]byte, 8+3)
	order.PutUint32(buf[0:4], 3)
	order.PutUint32(buf[4:8], 0)

	frame, err := ReadPacketFrame(bytes.NewReader(buf), order, HeaderLegacy, 0, uint32(len(buf)))
	if err != nil {
		t.Fatalf("ReadPacketFrame: %v", err)
	}
	if frame.PayloadOffset != 8 || frame.PayloadSize != 3 {
		t.Errorf("frame = %+v, want offset=8 size=3", frame)
	}
}

func TestReadPacketFrameRejectsOverrun(t *testing.T) {
	order := binary.LittleEndian
	buf := make([]byte, 6)
	order.PutUint16(buf[0:2], 100) // declares far more payload than exists
	if _, err := ReadPacketFrame(bytes.NewReader(buf), order, HeaderModern, 0, uint32(len(buf))); err == nil {
		t.Error("ReadPacketFrame succeeded with overrunning size, want error")
	}
}
