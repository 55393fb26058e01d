package setup

import "github.com/coconutbird/ww2ogg-core/werr"

// rewriteMapping rebuilds a single channel-mapping description:
// optional submap split, optional channel coupling, and the per-submap
// floor/residue assignment. The mapping type field is always written
// as 0, since this converter never encounters any other mapping type.
func rewriteMapping(r bitSource, sink bitSink, channels, floorCount, residueCount int) error {
	if err := sink.WriteBits(0, 16); err != nil {
		return err
	}

	submapsFlag, err := r.ReadBit()
	if err != nil {
		return err
	}
	if err := sink.WriteBit(submapsFlag); err != nil {
		return err
	}
	submaps := uint32(1)
	if submapsFlag != 0 {
		submapsMinus1, err := r.ReadBits(4)
		if err != nil {
			return err
		}
		if err := sink.WriteBits(submapsMinus1, 4); err != nil {
			return err
		}
		submaps = submapsMinus1 + 1
	}

	squarePolarFlag, err := r.ReadBit()
	if err != nil {
		return err
	}
	if err := sink.WriteBit(squarePolarFlag); err != nil {
		return err
	}
	if squarePolarFlag != 0 {
		couplingStepsMinus1, err := r.ReadBits(8)
		if err != nil {
			return err
		}
		if err := sink.WriteBits(couplingStepsMinus1, 8); err != nil {
			return err
		}
		width := ilog(uint32(channels - 1))
		for i := uint32(0); i <= couplingStepsMinus1; i++ {
			magnitude, err := r.ReadBits(width)
			if err != nil {
				return err
			}
			angle, err := r.ReadBits(width)
			if err != nil {
				return err
			}
			if err := sink.WriteBits(magnitude, width); err != nil {
				return err
			}
			if err := sink.WriteBits(angle, width); err != nil {
				return err
			}
			if magnitude == angle || int(magnitude) >= channels || int(angle) >= channels {
				return werr.NewParse(
					"mapping coupling step %d invalid: magnitude=%d angle=%d channels=%d",
					i, magnitude, angle, channels)
			}
		}
	}

	reserved, err := r.ReadBits(2)
	if err != nil {
		return err
	}
	if reserved != 0 {
		return werr.NewParse("mapping reserved bits %d, want 0", reserved)
	}
	if err := sink.WriteBits(reserved, 2); err != nil {
		return err
	}

	if submaps > 1 {
		for c := 0; c < channels; c++ {
			mux, err := r.ReadBits(4)
			if err != nil {
				return err
			}
			if err := sink.WriteBits(mux, 4); err != nil {
				return err
			}
			if int(mux) >= int(submaps) {
				return werr.NewParse("mapping channel %d mux %d >= submaps %d", c, mux, submaps)
			}
		}
	}

	for s := uint32(0); s < submaps; s++ {
		timeConfig, err := r.ReadBits(8)
		if err != nil {
			return err
		}
		if err := sink.WriteBits(timeConfig, 8); err != nil {
			return err
		}

		floorNumber, err := r.ReadBits(8)
		if err != nil {
			return err
		}
		if err := sink.WriteBits(floorNumber, 8); err != nil {
			return err
		}
		if int(floorNumber) >= floorCount {
			return werr.NewParse("mapping submap %d floor_number %d >= floor_count %d", s, floorNumber, floorCount)
		}

		residueNumber, err := r.ReadBits(8)
		if err != nil {
			return err
		}
		if err := sink.WriteBits(residueNumber, 8); err != nil {
			return err
		}
		if int(residueNumber) >= residueCount {
			return werr.NewParse("mapping submap %d residue_number %d >= residue_count %d", s, residueNumber, residueCount)
		}
	}

	return nil
}
