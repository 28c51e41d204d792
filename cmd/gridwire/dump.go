package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Zereker/gridwire"
	"github.com/Zereker/gridwire/protocol"
)

type dumpFlags struct {
	Hex bool
}

var dumpOpts dumpFlags

var dumpCmd = &cobra.Command{
	Use:   "dump [file]",
	Short: "Decode a captured byte stream frame by frame",
	Long: `dump reads raw client protocol bytes from a file, or stdin when no file
is given, and prints one line per frame. A leading client preamble is
skipped. The first frame of each message is shown with its message type
and correlation id, or its fragment id when the message is a fragment.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		return dump(in, cmd.OutOrStdout(), dumpOpts)
	},
}

func init() {
	dumpCmd.Flags().BoolVarP(&dumpOpts.Hex, "hex", "x", false, "print frame content as hex")
}

// dump walks the stream one frame header at a time until EOF.
func dump(r io.Reader, w io.Writer, flags dumpFlags) error {
	br := bufio.NewReader(r)

	if peek, err := br.Peek(len(gridwire.ProtocolPreamble)); err == nil && string(peek) == gridwire.ProtocolPreamble {
		_, _ = br.Discard(len(peek))
		fmt.Fprintf(w, "preamble %s\n", gridwire.ProtocolPreamble)
	}

	var (
		header   [protocol.SizeOfFrameLengthAndFlags]byte
		offset   int64
		frames   int
		messages int
	)
	startOfMsg := true
	for {
		if _, err := io.ReadFull(br, header[:]); err != nil {
			if err == io.EOF {
				break
			}
			return errors.Wrapf(err, "frame header at offset %d", offset)
		}

		length, fl := protocol.ReadHeader(header[:])
		if length < protocol.SizeOfFrameLengthAndFlags {
			return errors.Wrapf(protocol.ErrMalformedFrame, "frame length %d at offset %d", length, offset)
		}
		content := make([]byte, length-protocol.SizeOfFrameLengthAndFlags)
		if _, err := io.ReadFull(br, content); err != nil {
			return errors.Wrapf(err, "frame content at offset %d", offset)
		}

		frame := protocol.NewFrame(content, fl)
		fmt.Fprintf(w, "%8d  len=%-6d %-40s%s\n", offset, length, fl, describe(frame, startOfMsg))
		if flags.Hex && len(content) > 0 {
			fmt.Fprint(w, indent(hex.Dump(content)))
		}

		offset += int64(length)
		frames++
		startOfMsg = fl.Has(protocol.Final)
		if startOfMsg {
			messages++
		}
	}

	fmt.Fprintf(w, "%d frames, %d messages, %d bytes\n", frames, messages, offset)
	if !startOfMsg {
		return errors.New("stream ends inside a message")
	}
	return nil
}

func describe(f *protocol.Frame, first bool) string {
	if !first {
		return ""
	}
	switch {
	case f.Flags.Has(protocol.Unfragmented) && len(f.Content) >= protocol.ResponseInitialFrameSize:
		return fmt.Sprintf("  type=%#06x correlation=%d", protocol.ReadMessageType(f), protocol.ReadCorrelationID(f))
	case !f.Flags.Has(protocol.Unfragmented) && len(f.Content) >= protocol.FragmentHeaderFrameSize:
		return fmt.Sprintf("  fragment=%d", protocol.ReadFragmentID(f))
	}
	return "  (short first frame)"
}

func indent(s string) string {
	out := make([]byte, 0, len(s)+len(s)/8)
	lineStart := true
	for i := 0; i < len(s); i++ {
		if lineStart {
			out = append(out, "          "...)
		}
		out = append(out, s[i])
		lineStart = s[i] == '\n'
	}
	return string(out)
}
