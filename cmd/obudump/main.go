// Command obudump walks the OBUs in an IVF-wrapped AV1 bitstream and prints
// one line per OBU describing its type, extent, and - where this package
// knows how to parse the payload - a summary of its contents.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-av1/obuparse/internal/ivf"
	"github.com/go-av1/obuparse/obu"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s file.ivf\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		log.Fatal(err)
	}
}

func run(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r, err := ivf.NewReader(f)
	if err != nil {
		return fmt.Errorf("reading IVF header: %w", err)
	}
	fmt.Printf("ivf: %dx%d, fourcc=%s, frames=%d\n", r.Header.Width, r.Header.Height, r.Header.FourCC, r.Header.FrameCount)

	packetNum := 0

	for {
		frame, err := r.ReadFrame()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if err := dumpPacket(packetNum, frame.Payload); err != nil {
			return fmt.Errorf("packet %d: %w", packetNum, err)
		}
		packetNum++
	}

	return nil
}

func dumpPacket(packetNum int, buf []byte) error {
	pos := 0
	for pos < len(buf) {
		frame, err := obu.NextOBU(buf[pos:])
		if err != nil {
			return fmt.Errorf("obu at offset %d: %w", pos, err)
		}

		payload := buf[pos+frame.Offset : pos+frame.Offset+frame.Size]
		fmt.Printf("packet=%d type=%s offset=%d size=%d temporal_id=%d spatial_id=%d\n",
			packetNum, frame.Type, frame.Offset, frame.Size, frame.TemporalID, frame.SpatialID)

		switch frame.Type {
		case obu.OBUSequenceHeader:
			hdr, err := obu.ParseSequenceHeader(payload)
			if err != nil {
				return fmt.Errorf("sequence header: %w", err)
			}
			fmt.Printf("  profile=%d still_picture=%v reduced_still_picture_header=%v bit_depth=%d planes=%d\n",
				hdr.SeqProfile, hdr.StillPicture, hdr.ReducedStillPictureHeader, hdr.ColorConfig.BitDepth, hdr.ColorConfig.NumPlanes)

		case obu.OBUMetadata:
			meta, err := obu.ParseMetadata(payload)
			if err != nil {
				return fmt.Errorf("metadata: %w", err)
			}
			fmt.Printf("  metadata_type=%s\n", meta.Type)
		}

		pos += frame.Offset + frame.Size
	}

	if pos != len(buf) {
		return fmt.Errorf("packet left %d trailing bytes unconsumed", len(buf)-pos)
	}

	return nil
}
