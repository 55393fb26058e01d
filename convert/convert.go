package convert

import (
	"io"

	"github.com/coconutbird/ww2ogg-core/audio"
	"github.com/coconutbird/ww2ogg-core/oggstream"
	"github.com/coconutbird/ww2ogg-core/riff"
)

// Convert reads one Wwise RIFF/RIFX container of fileSize bytes from r
// and writes the equivalent standard Ogg Vorbis stream to w, returning
// the number of bytes written. The container's own fields (whether it
// carries a full header triad, mod_packets framing, a direct granule,
// sample-accurate looping) select which code paths run; opts only
// overrides what the container cannot tell a caller on its own.
func Convert(r io.ReaderAt, fileSize int64, w io.Writer, opts Options) (int64, error) {
	ctn, err := riff.Parse(r, fileSize)
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: w}
	sink := oggstream.NewPageWriter(cw)

	strategy := strategyFor(ctn)
	firstAudioOffset, state, err := strategy.WriteHeaders(ctn, sink, opts)
	if err != nil {
		return cw.n, err
	}

	modPackets := ctn.Vorb.ModPackets
	switch opts.ForcePacketFormat {
	case PacketFormatForceMod:
		modPackets = true
	case PacketFormatForceNoMod:
		modPackets = false
	}

	mode := riff.HeaderModeFor(&ctn.Vorb)
	dataEnd := ctn.DataOffset + ctn.DataSize

	rw := audio.NewRewriter(
		r, ctn.Order, mode,
		modPackets, ctn.Vorb.NoGranule,
		ctn.Vorb.Blocksize0Pow, ctn.Vorb.Blocksize1Pow,
		state.ModeBlockflag, state.ModeBits,
		ctn.Vorb.SampleCount,
	)
	if err := rw.Run(firstAudioOffset, dataEnd, sink); err != nil {
		return cw.n, err
	}

	return cw.n, nil
}

// countingWriter wraps an io.Writer to report how many bytes a
// conversion produced, for callers that want to log output size
// without a separate io.Writer wrapper of their own.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
