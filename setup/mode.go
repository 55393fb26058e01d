package setup

import "github.com/coconutbird/ww2ogg-core/werr"

// ilog returns the position of the highest set bit in v, counting from
// 1, i.e. the smallest n such that v < 2^n. ilog(0) = 0.
func ilog(v uint32) uint {
	var n uint
	for v != 0 {
		n++
		v >>= 1
	}
	return n
}

// rewriteModes rebuilds the mode table: blockflag, fixed window and
// transform types, and the mapping each mode selects. It returns the
// per-mode blockflag table and the bit width needed to index it, both
// of which the audio rewriter needs for window-transition bits.
func rewriteModes(r bitSource, sink bitSink, mappingCount int) ([]bool, uint, error) {
	modeCountMinus1, err := r.ReadBits(6)
	if err != nil {
		return nil, 0, err
	}
	if err := sink.WriteBits(modeCountMinus1, 6); err != nil {
		return nil, 0, err
	}
	modeCount := modeCountMinus1 + 1

	blockflags := make([]bool, modeCount)
	for i := uint32(0); i < modeCount; i++ {
		blockflag, err := r.ReadBit()
		if err != nil {
			return nil, 0, err
		}
		if err := sink.WriteBit(blockflag); err != nil {
			return nil, 0, err
		}
		blockflags[i] = blockflag != 0

		// windowtype and transformtype: Wwise never carries these;
		// standard Vorbis fixes both at 0.
		if err := sink.WriteBits(0, 16); err != nil {
			return nil, 0, err
		}
		if err := sink.WriteBits(0, 16); err != nil {
			return nil, 0, err
		}

		mapping, err := r.ReadBits(8)
		if err != nil {
			return nil, 0, err
		}
		if err := sink.WriteBits(mapping, 8); err != nil {
			return nil, 0, err
		}
		if int(mapping) >= mappingCount {
			return nil, 0, werr.NewParse("mode %d mapping %d >= mapping_count %d", i, mapping, mappingCount)
		}
	}

	return blockflags, ilog(modeCountMinus1), nil
}
