package convert

import (
	"strconv"

	"github.com/coconutbird/ww2ogg-core/oggstream"
	"github.com/coconutbird/ww2ogg-core/riff"
)

// vendor returns the vendor string a conversion writes into its
// comment header: the caller's override if set, else DefaultVendor.
func (o Options) vendor() string {
	if o.Vendor != "" {
		return o.Vendor
	}
	return DefaultVendor
}

// writeIdentificationPacket emits a standard Vorbis identification
// header built from the container's fmt and vorb fields. Bitrate
// fields other than the nominal rate (derived from the fmt chunk's
// average byte rate) are unknown and written as zero, which is a
// valid "unspecified" value per the Vorbis spec.
func writeIdentificationPacket(ctn *riff.Container, sink *oggstream.PageWriter) error {
	if err := writeBytes(sink, 0x01, []byte("vorbis")); err != nil {
		return err
	}
	if err := sink.WriteBits(0, 32); err != nil { // vorbis_version
		return err
	}
	if err := sink.WriteBits(uint32(ctn.Fmt.Channels), 8); err != nil {
		return err
	}
	if err := sink.WriteBits(ctn.Fmt.SampleRate, 32); err != nil {
		return err
	}
	if err := sink.WriteBits(0, 32); err != nil { // bitrate_maximum
		return err
	}
	if err := sink.WriteBits(ctn.Fmt.AvgBytesPerSec*8, 32); err != nil { // bitrate_nominal
		return err
	}
	if err := sink.WriteBits(0, 32); err != nil { // bitrate_minimum
		return err
	}
	if err := sink.WriteBits(uint32(ctn.Vorb.Blocksize0Pow), 4); err != nil {
		return err
	}
	if err := sink.WriteBits(uint32(ctn.Vorb.Blocksize1Pow), 4); err != nil {
		return err
	}
	return sink.WriteBit(1) // framing bit
}

// writeCommentPacket emits a standard Vorbis comment header carrying a
// fixed vendor string and, when the source declared a single sample
// loop, LoopStart/LoopEnd comments in the convention RPG Maker and
// other Wwise-adjacent tools read back.
func writeCommentPacket(ctn *riff.Container, sink *oggstream.PageWriter, vendor string) error {
	if err := writeBytes(sink, 0x03, []byte("vorbis")); err != nil {
		return err
	}
	if err := writeLengthPrefixed(sink, []byte(vendor)); err != nil {
		return err
	}

	var comments [][]byte
	if ctn.Loop != nil {
		comments = append(comments,
			[]byte("LoopStart="+strconv.FormatUint(uint64(ctn.Loop.Start), 10)),
			[]byte("LoopEnd="+strconv.FormatUint(uint64(ctn.Loop.End), 10)),
		)
	}

	if err := sink.WriteBits(uint32(len(comments)), 32); err != nil {
		return err
	}
	for _, c := range comments {
		if err := writeLengthPrefixed(sink, c); err != nil {
			return err
		}
	}
	return sink.WriteBit(1) // framing bit
}

// writeBytes writes packetType followed by body, one byte at a time.
func writeBytes(sink *oggstream.PageWriter, packetType byte, body []byte) error {
	if err := sink.WriteBits(uint32(packetType), 8); err != nil {
		return err
	}
	for _, b := range body {
		if err := sink.WriteBits(uint32(b), 8); err != nil {
			return err
		}
	}
	return nil
}

// writeLengthPrefixed writes a 32-bit little-endian length followed by
// the raw bytes of s, the shape every field of a Vorbis comment header
// uses beyond the packet type and codec name.
func writeLengthPrefixed(sink *oggstream.PageWriter, s []byte) error {
	if err := sink.WriteBits(uint32(len(s)), 32); err != nil {
		return err
	}
	for _, b := range s {
		if err := sink.WriteBits(uint32(b), 8); err != nil {
			return err
		}
	}
	return nil
}
