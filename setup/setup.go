// Package setup implements the Vorbis setup-header rewriter: codebook
// section, then (unless full-setup passthrough is requested) the
// floor1, residue, mapping, and mode sections, translating Wwise's
// compact stripped encodings into standard Vorbis ones.
package setup

import (
	"bytes"

	"github.com/coconutbird/ww2ogg-core/bitio"
	"github.com/coconutbird/ww2ogg-core/codebook"
	"github.com/coconutbird/ww2ogg-core/werr"
)

// bitSource is the subset of bitio.Reader's contract the rewriter
// needs: LSB-first bit reads plus a running count of bits consumed.
type bitSource interface {
	ReadBit() (uint32, error)
	ReadBits(n uint) (uint32, error)
	BitsRead() int64
}

// bitSink is the subset of bitio.Writer's (and oggstream.PageWriter's)
// contract the rewriter needs: LSB-first bit writes.
type bitSink interface {
	WriteBit(bit uint32) error
	WriteBits(v uint32, n uint) error
}

// Options controls which codebook-handling and structural-rewrite path
// the setup rewriter takes.
type Options struct {
	// InlineCodebooks treats each codebook as self-contained stripped
	// data in the setup packet itself, instead of a library index.
	InlineCodebooks bool
	// FullSetup copies the remainder of the setup packet verbatim
	// after the codebook section, skipping the floor/residue/mapping/
	// mode rewrite. Mode metadata is left empty in this case.
	FullSetup bool
}

// State is everything the audio rewriter needs out of a completed
// setup rewrite.
type State struct {
	ModeBlockflag []bool
	ModeBits      uint
}

// Fixed per spec: Wwise setup packets only ever describe a single
// floor (type 1) and a single mapping (type 0); only the residue type
// actually varies and is carried in the stream.
const (
	floorCount   = 1
	residueCount = 1
	mappingCount = 1

	inlineLibraryEscapeIndex   = 0x342
	inlineLibraryEscapePayload = 0x1590
)

// Rewrite reads one Wwise stripped setup packet from r, which must be
// scoped to exactly the packet's declared byte length (setupSize), and
// writes a standard Vorbis setup packet to sink. lib resolves library-
// indexed codebooks; channels bounds the mapping section's channel-
// coupling fields.
func Rewrite(r bitSource, sink bitSink, lib *codebook.Library, channels, setupSize int, opts Options) (*State, error) {
	if err := sink.WriteBits(0x05, 8); err != nil {
		return nil, err
	}
	for _, b := range []byte("vorbis") {
		if err := sink.WriteBits(uint32(b), 8); err != nil {
			return nil, err
		}
	}

	codebookCountMinus1, err := r.ReadBits(8)
	if err != nil {
		return nil, err
	}
	if err := sink.WriteBits(codebookCountMinus1, 8); err != nil {
		return nil, err
	}
	codebookCount := int(codebookCountMinus1) + 1

	for i := 0; i < codebookCount; i++ {
		if err := rewriteOneCodebook(r, sink, lib, opts); err != nil {
			return nil, err
		}
	}

	// Time-domain transform count: standard Vorbis requires this
	// field, but it is always exactly one entry of value 0. Wwise does
	// not carry it at all.
	if err := sink.WriteBits(0, 6); err != nil {
		return nil, err
	}
	if err := sink.WriteBits(0, 16); err != nil {
		return nil, err
	}

	if opts.FullSetup {
		if err := copySetupRemainder(r, sink, setupSize); err != nil {
			return nil, err
		}
		if err := sink.WriteBit(1); err != nil {
			return nil, err
		}
		return &State{}, nil
	}

	if err := sink.WriteBits(floorCount-1, 6); err != nil {
		return nil, err
	}
	if err := sink.WriteBits(1, 16); err != nil { // floor type 1, always
		return nil, err
	}
	if err := rewriteFloor1(r, sink, codebookCount); err != nil {
		return nil, err
	}

	if err := sink.WriteBits(residueCount-1, 6); err != nil {
		return nil, err
	}
	if err := rewriteResidue(r, sink, codebookCount); err != nil {
		return nil, err
	}

	if err := sink.WriteBits(mappingCount-1, 6); err != nil {
		return nil, err
	}
	if err := rewriteMapping(r, sink, channels, floorCount, residueCount); err != nil {
		return nil, err
	}

	blockflags, modeBits, err := rewriteModes(r, sink, mappingCount)
	if err != nil {
		return nil, err
	}

	if err := sink.WriteBit(1); err != nil {
		return nil, err
	}

	// The field widths rarely sum to a whole number of bytes; the
	// packet's final byte carries don't-care padding bits, so round up
	// rather than requiring an exact bit count.
	if consumed := r.BitsRead(); (consumed+7)/8 != int64(setupSize) {
		return nil, werr.NewParse(
			"setup packet declared %d bytes but the rewriter consumed %d bits", setupSize, consumed)
	}

	return &State{ModeBlockflag: blockflags, ModeBits: modeBits}, nil
}

// rewriteOneCodebook dispatches a single codebook through full-setup
// passthrough, inline stripped rebuild, or library-indexed stripped
// rebuild, per opts.
func rewriteOneCodebook(r bitSource, sink bitSink, lib *codebook.Library, opts Options) error {
	if opts.FullSetup {
		return codebook.Copy(r, sink)
	}
	if opts.InlineCodebooks {
		return codebook.Rebuild(r, -1, sink)
	}

	index, err := r.ReadBits(10)
	if err != nil {
		return err
	}
	if index == inlineLibraryEscapeIndex {
		payload, err := r.ReadBits(14)
		if err != nil {
			return err
		}
		if payload == inlineLibraryEscapePayload {
			return werr.NewCodebook(
				"codebook index %#x looks like misread inline data; retry with full-setup", index)
		}
		// Not the escape pattern after all: the 14 bits already
		// consumed were genuine codebook-index padding, so fall
		// through and resolve index normally.
	}

	entry, err := lib.Entry(int(index))
	if err != nil {
		return err
	}
	sub := bitio.NewReader(bytes.NewReader(entry))
	return codebook.Rebuild(sub, len(entry), sink)
}

// copySetupRemainder copies whatever of the setup packet remains,
// bit for bit, until exactly setupSize bytes have been consumed from
// the start of the packet.
func copySetupRemainder(r bitSource, sink bitSink, setupSize int) error {
	want := int64(setupSize) * 8
	for r.BitsRead() < want {
		bit, err := r.ReadBit()
		if err != nil {
			return err
		}
		if err := sink.WriteBit(bit); err != nil {
			return err
		}
	}
	return nil
}
