// Package riff implements access to the Wwise-flavored RIFF/RIFX
// container that wraps a stripped Vorbis payload: the RIFF header, the
// chunk index (fmt, cue, LIST, smpl, vorb, data), the format and vorb
// field layouts, and the Wwise audio packet framing variants.
//
// This package only reads the container; it never decodes or
// transcodes the Vorbis payload it locates.
package riff

import (
	"encoding/binary"
	"io"

	"github.com/coconutbird/ww2ogg-core/werr"
)

// ChunkRef locates one chunk's payload within the file: the byte
// offset and length of the bytes following its 8-byte tag+size header.
type ChunkRef struct {
	Offset uint32
	Size   uint32
}

// Container is a parsed Wwise RIFF/RIFX file: the chunk index plus the
// decoded fmt, vorb and smpl fields needed to drive a conversion.
type Container struct {
	// Order is the byte order the whole file uses: little-endian for
	// "RIFF", big-endian for "RIFX".
	Order binary.ByteOrder

	r      io.ReaderAt
	Chunks map[string]ChunkRef

	Fmt  Format
	Vorb Vorb
	Loop *Loop // nil if there was no smpl chunk.

	DataOffset uint32
	DataSize   uint32
}

const riffHeaderBytes = 12 // "RIFF"/"RIFX" + size(4) + "WAVE"

// Parse reads and validates the RIFF/RIFX container found in r, which
// is expected to start at offset 0, and is declared to be fileSize
// bytes long.
func Parse(r io.ReaderAt, fileSize int64) (*Container, error) {
	var hdr [riffHeaderBytes]byte
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		return nil, werr.NewParse("could not read RIFF header: %s", err)
	}

	var order binary.ByteOrder
	switch string(hdr[0:4]) {
	case "RIFF":
		order = binary.LittleEndian
	case "RIFX":
		order = binary.BigEndian
	default:
		return nil, werr.NewParse("not a RIFF/RIFX file: magic is %q", hdr[0:4])
	}

	declared := order.Uint32(hdr[4:8])
	if string(hdr[8:12]) != "WAVE" {
		return nil, werr.NewParse("not a WAVE form: form type is %q", hdr[8:12])
	}
	if int64(declared)+8 > fileSize {
		return nil, werr.NewParse(
			"declared RIFF size %d exceeds the %d bytes following the 8-byte RIFF header", declared, fileSize-8)
	}

	ctn := &Container{Order: order, r: r, Chunks: make(map[string]ChunkRef)}
	end := int64(declared) + 8
	off := int64(riffHeaderBytes)
	for off < end {
		var chdr [8]byte
		if _, err := r.ReadAt(chdr[:], off); err != nil {
			return nil, werr.NewParse("truncated chunk header at offset %d", off)
		}
		tag := string(chdr[0:4])
		size := order.Uint32(chdr[4:8])
		payloadOff := off + 8
		if int64(size) > end-payloadOff {
			return nil, werr.NewParse("chunk %q extends past RIFF boundary", tag)
		}
		ctn.Chunks[tag] = ChunkRef{Offset: uint32(payloadOff), Size: size}

		off = payloadOff + int64(size)
		if size%2 != 0 {
			off++ // chunks are word-aligned; skip the pad byte
		}
	}

	fmtRef, ok := ctn.Chunks["fmt "]
	if !ok {
		return nil, werr.NewParse("missing required fmt chunk")
	}
	dataRef, ok := ctn.Chunks["data"]
	if !ok {
		return nil, werr.NewParse("missing required data chunk")
	}
	ctn.DataOffset = dataRef.Offset
	ctn.DataSize = dataRef.Size

	f, err := parseFormat(r, order, fmtRef)
	if err != nil {
		return nil, err
	}
	ctn.Fmt = *f

	vorbRef, hasVorb := ctn.Chunks["vorb"]
	v, err := parseVorb(r, order, f, vorbRef, hasVorb)
	if err != nil {
		return nil, err
	}
	ctn.Vorb = *v

	if smplRef, ok := ctn.Chunks["smpl"]; ok {
		loop, err := parseLoop(r, order, smplRef, v.SampleCount)
		if err != nil {
			return nil, err
		}
		ctn.Loop = loop
	}

	return ctn, nil
}

// ReadAt exposes the container's underlying source, e.g. for readers
// that need to seek into the data chunk directly.
func (c *Container) ReadAt(p []byte, off int64) (int, error) {
	return c.r.ReadAt(p, off)
}
