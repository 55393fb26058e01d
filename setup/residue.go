package setup

import "github.com/coconutbird/ww2ogg-core/werr"

// rewriteResidue rebuilds a single residue vector-decode description:
// type, boundaries, partition layout, the classification cascade, and
// the per-bit classification codebooks.
func rewriteResidue(r bitSource, sink bitSink, codebookCount int) error {
	typ, err := r.ReadBits(2)
	if err != nil {
		return err
	}
	if typ > 2 {
		return werr.NewParse("residue type %d is not supported", typ)
	}
	if err := sink.WriteBits(typ, 16); err != nil {
		return err
	}

	for _, width := range []uint{24, 24, 24} {
		v, err := r.ReadBits(width)
		if err != nil {
			return err
		}
		if err := sink.WriteBits(v, width); err != nil {
			return err
		}
	}

	classificationsMinus1, err := r.ReadBits(6)
	if err != nil {
		return err
	}
	if err := sink.WriteBits(classificationsMinus1, 6); err != nil {
		return err
	}
	classifications := classificationsMinus1 + 1

	classbook, err := r.ReadBits(8)
	if err != nil {
		return err
	}
	if err := sink.WriteBits(classbook, 8); err != nil {
		return err
	}
	if int(classbook) >= codebookCount {
		return werr.NewParse("residue classbook %d >= codebook_count %d", classbook, codebookCount)
	}

	cascades := make([]uint32, classifications)
	for i := range cascades {
		low, err := r.ReadBits(3)
		if err != nil {
			return err
		}
		flag, err := r.ReadBit()
		if err != nil {
			return err
		}
		var high uint32
		if flag != 0 {
			high, err = r.ReadBits(5)
			if err != nil {
				return err
			}
		}
		if err := sink.WriteBits(low, 3); err != nil {
			return err
		}
		if err := sink.WriteBit(flag); err != nil {
			return err
		}
		if flag != 0 {
			if err := sink.WriteBits(high, 5); err != nil {
				return err
			}
		}
		cascades[i] = high*8 + low
	}

	for _, cascade := range cascades {
		for b := uint(0); b < 8; b++ {
			if cascade&(1<<b) == 0 {
				continue
			}
			book, err := r.ReadBits(8)
			if err != nil {
				return err
			}
			if err := sink.WriteBits(book, 8); err != nil {
				return err
			}
			if int(book) >= codebookCount {
				return werr.NewParse("residue book %d >= codebook_count %d", book, codebookCount)
			}
		}
	}

	return nil
}
