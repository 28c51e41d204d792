package gridwire

import (
	"context"
	"net"

	"github.com/pkg/errors"
)

// ProtocolPreamble is sent by a client once, right after the socket
// connects and before the first frame.
const ProtocolPreamble = "CP2"

// ErrInvalidPreamble is reported when a peer opens with anything other than
// ProtocolPreamble.
var ErrInvalidPreamble = errors.New("invalid protocol preamble")

// Dial connects to a member at address, sends the preamble and wraps the
// socket in a Conn configured by opt.
func Dial(ctx context.Context, address string, opt ...Option) (*Conn, error) {
	var d net.Dialer
	raw, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", address)
	}

	if tcp, ok := raw.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = raw.SetWriteDeadline(deadline)
	}
	if _, err := raw.Write([]byte(ProtocolPreamble)); err != nil {
		_ = raw.Close()
		return nil, errors.Wrap(err, "write preamble")
	}

	conn, err := NewConn(raw, opt...)
	if err != nil {
		_ = raw.Close()
		return nil, err
	}
	return conn, nil
}
