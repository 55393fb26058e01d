package riff

import (
	"encoding/binary"
	"io"

	"github.com/coconutbird/ww2ogg-core/werr"
)

// smplHeaderBytes is the size of the fixed portion of a standard RIFF
// smpl chunk, before its sample-loop records.
const smplHeaderBytes = 36

// smplLoopRecordBytes is the size of one sample-loop record within a
// smpl chunk: cue point id, type, start, end, fraction, play count.
const smplLoopRecordBytes = 24

// Loop describes the single loop region a smpl chunk may declare, with
// the spec's end-of-chunk normalization already applied: End is
// SampleCount when the raw end value was 0, and otherwise the raw
// value plus 1.
type Loop struct {
	Start uint32
	End   uint32
}

func parseLoop(r io.ReaderAt, order binary.ByteOrder, ref ChunkRef, sampleCount uint32) (*Loop, error) {
	if ref.Size < smplHeaderBytes {
		return nil, werr.NewParse("truncated smpl chunk")
	}
	hdr := make([]byte, smplHeaderBytes)
	if _, err := r.ReadAt(hdr, int64(ref.Offset)); err != nil {
		return nil, werr.NewParse("truncated smpl chunk: %s", err)
	}
	numLoops := order.Uint32(hdr[28:32])
	if numLoops != 1 {
		return nil, werr.NewParse("smpl chunk declares %d loops, want exactly 1", numLoops)
	}
	if ref.Size < smplHeaderBytes+smplLoopRecordBytes {
		return nil, werr.NewParse("smpl chunk too small to hold its declared loop")
	}

	rec := make([]byte, smplLoopRecordBytes)
	if _, err := r.ReadAt(rec, int64(ref.Offset)+smplHeaderBytes); err != nil {
		return nil, werr.NewParse("truncated smpl loop record: %s", err)
	}
	rawStart := order.Uint32(rec[8:12])
	rawEnd := order.Uint32(rec[12:16])

	end := rawEnd + 1
	if rawEnd == 0 {
		end = sampleCount
	}

	if !(rawStart < sampleCount && end <= sampleCount && rawStart <= end) {
		return nil, werr.NewParse(
			"smpl loop [%d,%d) is inconsistent with sample count %d", rawStart, end, sampleCount)
	}

	return &Loop{Start: rawStart, End: end}, nil
}
