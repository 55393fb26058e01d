// Command ww2ogg converts Wwise-flavored RIFF/RIFX Vorbis containers
// (.wem) into standard Ogg Vorbis streams.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/coconutbird/ww2ogg-core/codebook"
	"github.com/coconutbird/ww2ogg-core/convert"
	"github.com/coconutbird/ww2ogg-core/validate"
	"github.com/coconutbird/ww2ogg-core/werr"
)

const shorthandSuffix = " (shorthand)"

var (
	inputPath       string
	outputPath      string
	inlineCodebooks bool
	fullSetup       bool
	forcePacketFmt  string
	codebookSource  string
	codebookPath    string
	doValidate      bool
	verbose         bool
)

func init() {
	const (
		usage    = "the .wem file to convert, or a directory of .wem files"
		flagName = "input"
	)
	flag.StringVar(&inputPath, flagName, "", usage)
	flag.StringVar(&inputPath, "i", "", shorthandDesc(flagName))
}

func init() {
	const (
		usage    = "the .ogg file to write, or a directory when input is a directory"
		flagName = "output"
	)
	flag.StringVar(&outputPath, flagName, "", usage)
	flag.StringVar(&outputPath, "o", "", shorthandDesc(flagName))
}

func init() {
	const (
		usage    = "treat setup codebooks as self-contained; skip the codebook library lookup"
		flagName = "inline-codebooks"
	)
	flag.BoolVar(&inlineCodebooks, flagName, false, usage)
}

func init() {
	const (
		usage = "copy the remainder of the setup packet verbatim after the codebook " +
			"section, instead of rewriting floor/residue/mapping/mode"
		flagName = "full-setup"
	)
	flag.BoolVar(&fullSetup, flagName, false, usage)
}

func init() {
	const (
		usage    = "override autodetected audio packet framing: auto, force_mod or force_no_mod"
		flagName = "packet-format"
	)
	flag.StringVar(&forcePacketFmt, flagName, "auto", usage)
}

func init() {
	const (
		usage = "codebook source: embedded-default, embedded-aoTuV, external-path or inline-only"
		flagName = "codebooks"
	)
	flag.StringVar(&codebookSource, flagName, "embedded-default", usage)
}

func init() {
	const (
		usage    = "path to an external codebook library file, used when --codebooks=external-path"
		flagName = "codebook-file"
	)
	flag.StringVar(&codebookPath, flagName, "", usage)
}

func init() {
	const (
		usage    = "decode the converted stream and check it against a conformant decoder"
		flagName = "validate"
	)
	flag.BoolVar(&doValidate, flagName, false, usage)
}

func init() {
	const (
		usage    = "show per-file conversion results"
		flagName = "verbose"
	)
	flag.BoolVar(&verbose, flagName, false, usage)
	flag.BoolVar(&verbose, "v", false, shorthandDesc(flagName))
}

func shorthandDesc(flagName string) string {
	return "(shorthand for -" + flagName + ")"
}

func verifyFlags() {
	switch {
	case inputPath == "":
		flag.Usage()
		log.Fatal("input cannot be empty")
	case outputPath == "":
		flag.Usage()
		log.Fatal("output cannot be empty")
	}
	switch forcePacketFmt {
	case "auto", "force_mod", "force_no_mod":
	default:
		flag.Usage()
		log.Fatalf("packet-format must be one of auto, force_mod, force_no_mod, got %q", forcePacketFmt)
	}
	switch codebookSource {
	case "embedded-default", "embedded-aoTuV", "external-path", "inline-only":
	default:
		flag.Usage()
		log.Fatalf("codebooks must be one of embedded-default, embedded-aoTuV, external-path, inline-only, got %q", codebookSource)
	}
	if codebookSource == "external-path" && codebookPath == "" {
		flag.Usage()
		log.Fatal("codebook-file must be set when codebooks=external-path")
	}
}

func packetFormat() convert.PacketFormat {
	switch forcePacketFmt {
	case "force_mod":
		return convert.PacketFormatForceMod
	case "force_no_mod":
		return convert.PacketFormatForceNoMod
	default:
		return convert.PacketFormatAuto
	}
}

// resolveCodebookPath resolves a relative external codebook library
// path against the WW2OGG_CODEBOOKS environment variable, falling
// back to the user's home directory when that variable is unset. An
// absolute path is returned unchanged.
func resolveCodebookPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	dir := os.Getenv("WW2OGG_CODEBOOKS")
	if dir == "" {
		dir = userHome()
	}
	if dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}

// userHome returns the platform-specific path to the user's home
// directory.
func userHome() string {
	if runtime.GOOS == "windows" {
		if path := os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH"); path != "" {
			return path
		}
		return os.Getenv("USERPROFILE")
	}
	return os.Getenv("HOME")
}

// loadLibrary resolves the codebook library a conversion should start
// with, per --codebooks.
func loadLibrary() (*codebook.Library, error) {
	switch codebookSource {
	case "embedded-aoTuV":
		return codebook.EmbeddedAoTuV()
	case "external-path":
		resolved := resolveCodebookPath(codebookPath)
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, werr.NewFileOpen(resolved, err)
		}
		return codebook.Parse(data)
	case "inline-only":
		return nil, nil
	default:
		return codebook.EmbeddedDefault()
	}
}

// retryLibrary returns the codebook library a retry attempt should use
// after a Codebook-family failure: the aoTuV set when the first
// attempt used the default, nil otherwise (no second fallback).
func retryLibrary() (*codebook.Library, bool) {
	if codebookSource != "embedded-default" {
		return nil, false
	}
	lib, err := codebook.EmbeddedAoTuV()
	if err != nil {
		return nil, false
	}
	return lib, true
}

// convertOne converts one .wem file to one .ogg file, retrying once
// against the aoTuV codebook library on a Codebook-family failure
// (per the CLI retry policy; the core itself never retries).
func convertOne(src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return werr.NewFileOpen(src, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return werr.NewFileOpen(src, err)
	}

	lib, err := loadLibrary()
	if err != nil {
		return err
	}

	opts := convert.Options{
		InlineCodebooks:   inlineCodebooks,
		FullSetup:         fullSetup,
		ForcePacketFormat: packetFormat(),
		Library:           lib,
	}

	// Convert reads via io.ReaderAt, not a stream position, so a retry
	// against a different codebook library needs no re-seek.
	out, convErr := convertAndValidate(f, info.Size(), opts)
	if convErr != nil && werr.IsCodebookFamily(convErr) {
		if retryLib, ok := retryLibrary(); ok {
			opts.Library = retryLib
			out, convErr = convertAndValidate(f, info.Size(), opts)
		}
	}
	if convErr != nil {
		return convErr
	}

	if err := os.WriteFile(dst, out.Bytes(), 0o644); err != nil {
		return werr.NewFileOpen(dst, err)
	}
	return nil
}

// convertAndValidate converts r into an in-memory buffer and, if
// --validate was passed, decodes the buffer back through the
// downstream validator before returning it, per the resource model's
// "validate from a re-opened in-memory buffer" guidance.
func convertAndValidate(r io.ReaderAt, size int64, opts convert.Options) (*bytes.Buffer, error) {
	var out bytes.Buffer
	if _, err := convert.Convert(r, size, &out, opts); err != nil {
		return nil, err
	}
	if doValidate {
		if _, err := validate.Check(bytes.NewReader(out.Bytes())); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

func canonicalOutputName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".ogg"
}

func main() {
	flag.Parse()
	verifyFlags()

	info, err := os.Stat(inputPath)
	if err != nil {
		log.Fatal(werr.NewFileOpen(inputPath, err))
	}

	if !info.IsDir() {
		if err := convertOne(inputPath, outputPath); err != nil {
			log.Fatal(err)
		}
		fmt.Println("Successfully converted to", outputPath)
		return
	}

	entries, err := os.ReadDir(inputPath)
	if err != nil {
		log.Fatal(werr.NewFileOpen(inputPath, err))
	}
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		log.Fatal(werr.NewFileOpen(outputPath, err))
	}

	var converted, failed int
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".wem" {
			continue
		}
		src := filepath.Join(inputPath, entry.Name())
		dst := filepath.Join(outputPath, canonicalOutputName(entry.Name()))
		if err := convertOne(src, dst); err != nil {
			log.Printf("Could not convert %s: %s", entry.Name(), err)
			failed++
			continue
		}
		if verbose {
			fmt.Println("Converted", entry.Name(), "->", dst)
		}
		converted++
	}

	fmt.Printf("Converted %d file(s), %d failure(s)\n", converted, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
