// Package validate decodes a converted Ogg Vorbis stream back through
// a conformant decoder and checks it against the conversion's
// correctness law: at least one sample, no NaN/Inf samples, and fewer
// than 10% of samples in any decode window clipping past |x| <= 10.0.
// A caller uses this as a downstream sanity check, most importantly to
// catch a structurally-valid-but-wrong-codebook-library conversion
// that the rewriter itself had no way to detect.
package validate

import (
	"io"
	"math"

	"github.com/jfreymuth/oggvorbis"

	"github.com/coconutbird/ww2ogg-core/werr"
)

// clipThreshold is the |x| bound a decoded sample must stay within to
// count as "in range" for the mismatch ratio.
const clipThreshold = 10.0

// mismatchRatioLimit is the fraction of out-of-range samples in a
// window above which the stream is rejected as likely decoded against
// the wrong codebook library.
const mismatchRatioLimit = 0.10

// windowSize is how many samples per channel the decode buffer holds;
// each Read fills at most one ratio-checked window of
// windowSize*channels samples.
const windowSize = 4096

// Result summarizes one validation pass.
type Result struct {
	SampleCount   int64
	SampleRate    int
	Channels      int
	WorstMismatch float64 // highest out-of-range ratio seen in any window
}

// oggReader is the subset of *oggvorbis.Reader this package depends
// on, narrowed so tests can substitute a fake decoder.
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

// Check decodes r as an Ogg Vorbis stream and validates it against the
// correctness law. It reports a werr.Codebook error, suggesting a
// codebook library mismatch, when any window's out-of-range ratio
// exceeds mismatchRatioLimit.
func Check(r io.Reader) (Result, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return Result{}, werr.NewParse("decoding converted stream: %s", err)
	}
	return check(dec)
}

func check(dec oggReader) (Result, error) {
	res := Result{SampleRate: dec.SampleRate(), Channels: dec.Channels()}

	buf := make([]float32, windowSize*res.Channels)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			window := buf[:n]
			var bad int
			for _, x := range window {
				if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
					return res, werr.NewParse("decoded stream contains a NaN/Inf sample")
				}
				if math.Abs(float64(x)) > clipThreshold {
					bad++
				}
			}
			ratio := float64(bad) / float64(len(window))
			if ratio > res.WorstMismatch {
				res.WorstMismatch = ratio
			}
			if ratio > mismatchRatioLimit {
				return res, werr.NewCodebook(
					"decoded stream has %.1f%% out-of-range samples in one window, likely wrong codebook library", ratio*100)
			}
			res.SampleCount += int64(n / max(res.Channels, 1))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, werr.NewParse("decoding converted stream: %s", err)
		}
		if n == 0 {
			break
		}
	}

	if res.SampleCount < 1 {
		return res, werr.NewParse("decoded stream yielded no samples")
	}
	return res, nil
}
