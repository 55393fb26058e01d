// Package codebook implements the Vorbis codebook rewriter: rebuilding
// Wwise's bit-packed stripped codebooks into standard Vorbis form, or
// passing an already-standard codebook through unchanged, plus the
// offset-indexed codebook library that stripped codebooks are looked
// up against.
package codebook

import (
	"github.com/coconutbird/ww2ogg-core/werr"
)

// vorbisSync is the 24-bit codebook sync pattern ("BCV" read
// little-endian as a 3-byte value) that opens every standard Vorbis
// codebook.
const vorbisSync = 0x564342

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

// Rebuild reads one Wwise-stripped codebook from r and re-emits it in
// standard Vorbis form to sink. When codebookSize is non-negative, the
// number of bits consumed from r is checked against it and a
// SizeMismatch is raised on disagreement.
func Rebuild(r bitSource, codebookSize int, sink bitSink) error {
	startBits := r.BitsRead()

	dimensions, err := r.ReadBits(4)
	if err != nil {
		return err
	}
	entries, err := r.ReadBits(14)
	if err != nil {
		return err
	}
	if err := sink.WriteBits(vorbisSync, 24); err != nil {
		return err
	}
	if err := sink.WriteBits(dimensions, 16); err != nil {
		return err
	}
	if err := sink.WriteBits(entries, 24); err != nil {
		return err
	}

	ordered, err := r.ReadBit()
	if err != nil {
		return err
	}
	if err := sink.WriteBit(ordered); err != nil {
		return err
	}

	if ordered != 0 {
		if err := copyOrderedLengths(r, sink, entries); err != nil {
			return err
		}
	} else {
		if err := rebuildUnorderedLengths(r, sink, entries); err != nil {
			return err
		}
	}

	if err := rewriteLookupTable(r, sink, entries, dimensions, 1, 4); err != nil {
		return err
	}

	if codebookSize >= 0 {
		bitsRead := r.BitsRead() - startBits
		computed := bitsRead/8 + 1
		if computed != int64(codebookSize) {
			return werr.NewSizeMismatch(codebookSize, int(computed))
		}
	}
	return nil
}

// Copy reads one already-standard Vorbis codebook from r and copies it
// through to sink unchanged, validating its structure as it goes. It
// is used for codebooks that are already in standard form: inline
// codebooks under full-setup, and legacy header-triad setup packets.
func Copy(r bitSource, sink bitSink) error {
	sync, err := r.ReadBits(24)
	if err != nil {
		return err
	}
	if sync != vorbisSync {
		return werr.NewCodebook("codebook sync pattern %#x, want %#x", sync, vorbisSync)
	}
	if err := sink.WriteBits(sync, 24); err != nil {
		return err
	}

	dimensions, err := r.ReadBits(16)
	if err != nil {
		return err
	}
	if err := sink.WriteBits(dimensions, 16); err != nil {
		return err
	}
	entries, err := r.ReadBits(24)
	if err != nil {
		return err
	}
	if err := sink.WriteBits(entries, 24); err != nil {
		return err
	}

	ordered, err := r.ReadBit()
	if err != nil {
		return err
	}
	if err := sink.WriteBit(ordered); err != nil {
		return err
	}

	if ordered != 0 {
		if err := copyOrderedLengths(r, sink, entries); err != nil {
			return err
		}
	} else {
		if err := copyUnorderedLengths(r, sink, entries); err != nil {
			return err
		}
	}

	return rewriteLookupTable(r, sink, entries, dimensions, 4, 4)
}

// copyOrderedLengths reads the ordered run-length encoding (variable-
// width run counts) and re-emits it unchanged: widths here are a
// function of how many entries remain, not a field being stripped, so
// Rebuild and Copy share this exact shape.
func copyOrderedLengths(r bitSource, sink bitSink, entries uint32) error {
	initialLength, err := r.ReadBits(5)
	if err != nil {
		return err
	}
	if err := sink.WriteBits(initialLength, 5); err != nil {
		return err
	}

	var current uint32
	for current < entries {
		width := ilog(entries - current)
		number, err := r.ReadBits(width)
		if err != nil {
			return err
		}
		if err := sink.WriteBits(number, width); err != nil {
			return err
		}
		current += number
		if current > entries {
			return werr.NewCodebook("ordered codeword run overruns entry count")
		}
	}
	return nil
}

// rebuildUnorderedLengths reads Wwise's compact unordered encoding,
// whose codeword-length field width is declared up front
// (codeword_length_length, 1..5 bits), and re-emits each length at a
// fixed 5-bit width as standard Vorbis requires.
func rebuildUnorderedLengths(r bitSource, sink bitSink, entries uint32) error {
	lengthWidth, err := r.ReadBits(3)
	if err != nil {
		return err
	}
	if lengthWidth < 1 || lengthWidth > 5 {
		return werr.NewCodebook("invalid codeword_length_length %d", lengthWidth)
	}

	sparse, err := r.ReadBit()
	if err != nil {
		return err
	}
	if err := sink.WriteBit(sparse); err != nil {
		return err
	}

	for i := uint32(0); i < entries; i++ {
		present := true
		if sparse != 0 {
			p, err := r.ReadBit()
			if err != nil {
				return err
			}
			present = p != 0
			if err := sink.WriteBit(p); err != nil {
				return err
			}
		}
		if !present {
			continue
		}
		length, err := r.ReadBits(uint(lengthWidth))
		if err != nil {
			return err
		}
		if err := sink.WriteBits(length, 5); err != nil {
			return err
		}
	}
	return nil
}

// copyUnorderedLengths mirrors rebuildUnorderedLengths for already-
// standard input, where the codeword-length field is already a fixed
// 5 bits wide on both sides.
func copyUnorderedLengths(r bitSource, sink bitSink, entries uint32) error {
	sparse, err := r.ReadBit()
	if err != nil {
		return err
	}
	if err := sink.WriteBit(sparse); err != nil {
		return err
	}

	for i := uint32(0); i < entries; i++ {
		present := true
		if sparse != 0 {
			p, err := r.ReadBit()
			if err != nil {
				return err
			}
			present = p != 0
			if err := sink.WriteBit(p); err != nil {
				return err
			}
		}
		if !present {
			continue
		}
		length, err := r.ReadBits(5)
		if err != nil {
			return err
		}
		if err := sink.WriteBits(length, 5); err != nil {
			return err
		}
	}
	return nil
}

// rewriteLookupTable handles the VQ lookup table common tail shared by
// Rebuild and Copy. typeInWidth is 1 for the stripped encoding (a
// single flag bit) and 4 for the already-standard encoding; the output
// width is always 4. Lookup type 2 is only ever seen on already-
// standard input and is rejected there per spec.
func rewriteLookupTable(r bitSource, sink bitSink, entries, dimensions uint32, typeInWidth, typeOutWidth uint) error {
	lookupType, err := r.ReadBits(typeInWidth)
	if err != nil {
		return err
	}
	if err := sink.WriteBits(lookupType, typeOutWidth); err != nil {
		return err
	}

	switch lookupType {
	case 0:
		return nil
	case 1:
		minVal, err := r.ReadBits(32)
		if err != nil {
			return err
		}
		maxVal, err := r.ReadBits(32)
		if err != nil {
			return err
		}
		valueLength, err := r.ReadBits(4)
		if err != nil {
			return err
		}
		sequenceFlag, err := r.ReadBit()
		if err != nil {
			return err
		}
		if err := sink.WriteBits(minVal, 32); err != nil {
			return err
		}
		if err := sink.WriteBits(maxVal, 32); err != nil {
			return err
		}
		if err := sink.WriteBits(valueLength, 4); err != nil {
			return err
		}
		if err := sink.WriteBit(sequenceFlag); err != nil {
			return err
		}

		quantvals := bookMapType1Quantvals(entries, dimensions)
		width := uint(valueLength + 1)
		for i := uint32(0); i < quantvals; i++ {
			v, err := r.ReadBits(width)
			if err != nil {
				return err
			}
			if err := sink.WriteBits(v, width); err != nil {
				return err
			}
		}
		return nil
	case 2:
		return werr.NewCodebook("lookup type 2 is not supported")
	default:
		return werr.NewCodebook("unsupported codebook lookup type %d", lookupType)
	}
}
