// Package convert implements the conversion orchestrator: it drives
// the container parser, setup rewriter, and audio rewriter in order
// and flushes the resulting pages, choosing between a synthesized or
// passthrough header triad depending on what the source container
// carries.
package convert

import "github.com/coconutbird/ww2ogg-core/codebook"

// PacketFormat overrides the autodetected mod_packets flag.
type PacketFormat int

const (
	PacketFormatAuto PacketFormat = iota
	PacketFormatForceMod
	PacketFormatForceNoMod
)

// CodebookSource selects where a conversion's codebook library comes
// from.
type CodebookSource int

const (
	CodebookSourceEmbeddedDefault CodebookSource = iota
	CodebookSourceEmbeddedAoTuV
	CodebookSourceExternalPath
	CodebookSourceInlineOnly
)

// Options carries every configuration knob a conversion accepts.
type Options struct {
	// InlineCodebooks treats setup codebooks as self-contained rather
	// than library-indexed.
	InlineCodebooks bool
	// FullSetup copies the setup packet's floor/residue/mapping/mode
	// section verbatim instead of rewriting it. Incompatible with
	// ModPackets audio paths.
	FullSetup bool
	// ForcePacketFormat overrides the vorb-derived mod_packets flag.
	ForcePacketFormat PacketFormat
	// Vendor is the fixed vendor string written into the comment
	// header of a synthesized triad.
	Vendor string

	// Library is consulted for codebooks when InlineCodebooks is
	// false and FullSetup is false. May be nil only when InlineCodebooks
	// or FullSetup is set, since no library lookup happens then.
	Library *codebook.Library
}

// DefaultVendor is the vendor string a caller should use absent any
// other preference.
const DefaultVendor = "converted from Audiokinetic Wwise by ww2ogg 0.24"
