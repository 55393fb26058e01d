package setup

import "github.com/coconutbird/ww2ogg-core/werr"

// rewriteFloor1 rebuilds a single floor1 curve description: partition
// classes, their subclass codebooks, and the per-partition range bits.
// Wwise setup packets only ever describe floor type 1, so the caller
// is responsible for writing the fixed floor_count/floor_type header
// fields around this call.
func rewriteFloor1(r bitSource, sink bitSink, codebookCount int) error {
	partitions, err := r.ReadBits(5)
	if err != nil {
		return err
	}
	if err := sink.WriteBits(partitions, 5); err != nil {
		return err
	}

	classOf := make([]uint32, partitions)
	maxClass := -1
	for i := range classOf {
		c, err := r.ReadBits(4)
		if err != nil {
			return err
		}
		if err := sink.WriteBits(c, 4); err != nil {
			return err
		}
		classOf[i] = c
		if int(c) > maxClass {
			maxClass = int(c)
		}
	}

	classDim := make([]uint32, maxClass+1)
	for c := 0; c <= maxClass; c++ {
		dimMinus1, err := r.ReadBits(3)
		if err != nil {
			return err
		}
		if err := sink.WriteBits(dimMinus1, 3); err != nil {
			return err
		}
		classDim[c] = dimMinus1 + 1

		subclasses, err := r.ReadBits(2)
		if err != nil {
			return err
		}
		if err := sink.WriteBits(subclasses, 2); err != nil {
			return err
		}

		if subclasses != 0 {
			masterbook, err := r.ReadBits(8)
			if err != nil {
				return err
			}
			if err := sink.WriteBits(masterbook, 8); err != nil {
				return err
			}
			if int(masterbook) >= codebookCount {
				return werr.NewParse("floor1 class %d masterbook %d >= codebook_count %d", c, masterbook, codebookCount)
			}
		}

		for j := uint32(0); j < uint32(1)<<subclasses; j++ {
			book, err := r.ReadBits(8)
			if err != nil {
				return err
			}
			if err := sink.WriteBits(book, 8); err != nil {
				return err
			}
			if book != 0 && int(book-1) >= codebookCount {
				return werr.NewParse("floor1 class %d subclass %d book %d >= codebook_count %d", c, j, book-1, codebookCount)
			}
		}
	}

	multiplierMinus1, err := r.ReadBits(2)
	if err != nil {
		return err
	}
	if err := sink.WriteBits(multiplierMinus1, 2); err != nil {
		return err
	}

	rangebits, err := r.ReadBits(4)
	if err != nil {
		return err
	}
	if err := sink.WriteBits(rangebits, 4); err != nil {
		return err
	}

	for _, class := range classOf {
		dim := classDim[class]
		for k := uint32(0); k < dim; k++ {
			v, err := r.ReadBits(uint(rangebits))
			if err != nil {
				return err
			}
			if err := sink.WriteBits(v, uint(rangebits)); err != nil {
				return err
			}
		}
	}

	return nil
}
