package convert

import (
	"io"

	"github.com/coconutbird/ww2ogg-core/bitio"
	"github.com/coconutbird/ww2ogg-core/oggstream"
	"github.com/coconutbird/ww2ogg-core/riff"
	"github.com/coconutbird/ww2ogg-core/setup"
	"github.com/coconutbird/ww2ogg-core/werr"
)

// setupPacketSignature is the 7-byte packet-type-plus-codec-name
// prefix ("\x05vorbis") that opens every standard Vorbis setup packet
// and the rewritten output ww2ogg-core produces. A source that already
// carries a full header triad stores this prefix verbatim; a source
// that doesn't never stores it at all, since setup.Rewrite synthesizes
// it itself.
var setupPacketSignature = [7]byte{0x05, 'v', 'o', 'r', 'b', 'i', 's'}

// TriadStrategy builds and emits the three Vorbis header packets (ID,
// comment, setup) for one conversion. Container.Vorb.HeaderTriadPresent
// selects which strategy a conversion uses: synthesizedTriad builds ID
// and comment from scratch and rewrites a stripped setup packet,
// passthroughTriad copies an already-standard triad through with only
// the setup packet's codebook section revalidated.
type TriadStrategy interface {
	WriteHeaders(ctn *riff.Container, sink *oggstream.PageWriter, opts Options) (firstAudioOffset uint32, state *setup.State, err error)
}

// strategyFor picks the triad strategy a parsed container requires.
func strategyFor(ctn *riff.Container) TriadStrategy {
	if ctn.Vorb.HeaderTriadPresent {
		return passthroughTriad{}
	}
	return synthesizedTriad{}
}

// synthesizedTriad builds the ID and comment packets from the
// container's fmt/vorb/loop fields and rewrites the stripped setup
// packet found at Vorb.SetupPacketOffset.
type synthesizedTriad struct{}

func (synthesizedTriad) WriteHeaders(ctn *riff.Container, sink *oggstream.PageWriter, opts Options) (uint32, *setup.State, error) {
	if err := writeIdentificationPacket(ctn, sink); err != nil {
		return 0, nil, err
	}
	if err := sink.FlushPage(false, false); err != nil {
		return 0, nil, err
	}

	if err := writeCommentPacket(ctn, sink, opts.vendor()); err != nil {
		return 0, nil, err
	}
	if err := sink.FlushPage(false, false); err != nil {
		return 0, nil, err
	}

	// Vorb.SetupPacketOffset and Vorb.FirstAudioPacketOffset are
	// byte offsets relative to the start of the data chunk's payload,
	// not absolute file offsets.
	start := ctn.DataOffset + ctn.Vorb.SetupPacketOffset
	end := ctn.DataOffset + ctn.Vorb.FirstAudioPacketOffset
	if end < start {
		return 0, nil, werr.NewParse("setup packet offset %d is past first audio packet offset %d", start, end)
	}
	setupSize := int(end - start)

	r := newBitReader(ctn, int64(start), int64(setupSize))
	state, err := setup.Rewrite(r, sink, opts.Library, int(ctn.Fmt.Channels), setupSize, setup.Options{
		InlineCodebooks: opts.InlineCodebooks,
		FullSetup:       opts.FullSetup,
	})
	if err != nil {
		return 0, nil, err
	}
	if err := sink.FlushPage(false, false); err != nil {
		return 0, nil, err
	}

	return end, state, nil
}

// passthroughTriad copies an already-standard header triad through
// verbatim, legacy-framed, validating each packet's type byte and
// zero granule; the setup packet's codebook section is revalidated
// through codebook.Copy (via setup.Rewrite in full-setup mode). No
// codebook library is consulted on this path.
type passthroughTriad struct{}

func (passthroughTriad) WriteHeaders(ctn *riff.Container, sink *oggstream.PageWriter, opts Options) (uint32, *setup.State, error) {
	off := ctn.DataOffset
	dataEnd := ctn.DataOffset + ctn.DataSize

	idFrame, err := copyLegacyPacketVerbatim(ctn, sink, off, dataEnd, 1)
	if err != nil {
		return 0, nil, err
	}
	if err := sink.FlushPage(false, false); err != nil {
		return 0, nil, err
	}

	commentFrame, err := copyLegacyPacketVerbatim(ctn, sink, idFrame.NextOffset, dataEnd, 3)
	if err != nil {
		return 0, nil, err
	}
	if err := sink.FlushPage(false, false); err != nil {
		return 0, nil, err
	}

	setupFrame, err := riff.ReadPacketFrame(ctn, ctn.Order, riff.HeaderLegacy, commentFrame.NextOffset, dataEnd)
	if err != nil {
		return 0, nil, err
	}
	if setupFrame.Granule != 0 {
		return 0, nil, werr.NewParse("header-triad setup packet has a non-zero granule %d", setupFrame.Granule)
	}

	var sig [7]byte
	if _, err := ctn.ReadAt(sig[:], int64(setupFrame.PayloadOffset)); err != nil {
		return 0, nil, werr.NewParse("truncated setup packet signature: %s", err)
	}
	if sig != setupPacketSignature {
		return 0, nil, werr.NewParse("header-triad setup packet missing %q signature", setupPacketSignature)
	}
	if setupFrame.PayloadSize < uint32(len(sig)) {
		return 0, nil, werr.NewParse("header-triad setup packet shorter than its signature")
	}

	body := int64(setupFrame.PayloadSize) - int64(len(sig))
	r := newBitReader(ctn, int64(setupFrame.PayloadOffset)+int64(len(sig)), body)
	state, err := setup.Rewrite(r, sink, nil, int(ctn.Fmt.Channels), int(body), setup.Options{FullSetup: true})
	if err != nil {
		return 0, nil, err
	}
	if err := sink.FlushPage(false, false); err != nil {
		return 0, nil, err
	}

	return setupFrame.NextOffset, state, nil
}

// copyLegacyPacketVerbatim frames and copies one legacy-framed header
// packet through to sink unchanged, validating its packet-type byte
// and that its granule is zero.
func copyLegacyPacketVerbatim(ctn *riff.Container, sink *oggstream.PageWriter, off, dataEnd uint32, wantType byte) (*riff.PacketFrame, error) {
	frame, err := riff.ReadPacketFrame(ctn, ctn.Order, riff.HeaderLegacy, off, dataEnd)
	if err != nil {
		return nil, err
	}
	if frame.Granule != 0 {
		return nil, werr.NewParse("header-triad packet at offset %d has a non-zero granule %d", off, frame.Granule)
	}

	payload := make([]byte, frame.PayloadSize)
	if _, err := ctn.ReadAt(payload, int64(frame.PayloadOffset)); err != nil {
		return nil, werr.NewParse("truncated header-triad packet at offset %d: %s", frame.PayloadOffset, err)
	}
	if len(payload) == 0 || payload[0] != wantType {
		return nil, werr.NewParse("header-triad packet at offset %d has type %v, want %d", frame.PayloadOffset, payload, wantType)
	}
	for _, b := range payload {
		if err := sink.WriteBits(uint32(b), 8); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

// newBitReader builds a bitio.Reader scoped to exactly [off, off+n) of
// an io.ReaderAt.
func newBitReader(r io.ReaderAt, off, n int64) *bitio.Reader {
	return bitio.NewReader(io.NewSectionReader(r, off, n))
}
