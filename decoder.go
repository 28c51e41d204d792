package gridwire

import (
	"github.com/pkg/errors"

	"github.com/Zereker/gridwire/protocol"
)

// frameDecoder turns an arbitrarily sliced byte stream into messages.
//
// It alternates between collecting a frame header and collecting the
// frame body. Partial headers and bodies are kept across Feed calls, so a
// socket read may end anywhere. Frames are linked into the current message
// until a frame with Final arrives. Feed never blocks.
type frameDecoder struct {
	maxFrameLength int
	metrics        Metrics

	header    [protocol.SizeOfFrameLengthAndFlags]byte
	headerLen int

	inBody  bool
	flags   protocol.Flags
	content []byte
	filled  int

	msg *protocol.Message
}

func newFrameDecoder(maxFrameLength int, metrics Metrics) *frameDecoder {
	return &frameDecoder{maxFrameLength: maxFrameLength, metrics: metrics}
}

// Feed consumes chunk and calls emit for every message whose Final frame
// it completes. The decoder does not retain chunk. After an error the
// stream cannot be resynchronized and the decoder must be discarded.
func (d *frameDecoder) Feed(chunk []byte, emit func(*protocol.Message)) error {
	for {
		if !d.inBody {
			if len(chunk) == 0 {
				return nil
			}
			n := copy(d.header[d.headerLen:], chunk)
			d.headerLen += n
			chunk = chunk[n:]
			if d.headerLen < len(d.header) {
				return nil
			}
			if err := d.startBody(); err != nil {
				return err
			}
		}

		n := copy(d.content[d.filled:], chunk)
		d.filled += n
		chunk = chunk[n:]
		if d.filled < len(d.content) {
			return nil
		}
		d.completeFrame(emit)
	}
}

func (d *frameDecoder) startBody() error {
	length, flags := protocol.ReadHeader(d.header[:])
	if length < protocol.SizeOfFrameLengthAndFlags {
		return errors.Wrapf(protocol.ErrMalformedFrame, "frame length %d is shorter than its header", length)
	}
	if length > d.maxFrameLength {
		return errors.Wrapf(ErrFrameTooLarge, "frame length %d exceeds %d", length, d.maxFrameLength)
	}
	d.inBody = true
	d.flags = flags
	d.content = make([]byte, length-protocol.SizeOfFrameLengthAndFlags)
	d.filled = 0
	return nil
}

func (d *frameDecoder) completeFrame(emit func(*protocol.Message)) {
	final := d.flags.Has(protocol.Final)
	if d.msg == nil {
		d.msg = protocol.NewMessage()
	}
	d.msg.Append(protocol.NewFrame(d.content, d.flags))
	d.metrics.IncrementFramesReceived()

	d.inBody = false
	d.headerLen = 0
	d.content = nil
	d.filled = 0

	if final {
		msg := d.msg
		d.msg = nil
		emit(msg)
	}
}
