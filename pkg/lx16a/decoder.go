package lx16a

import (
	"context"
	"io"

	"github.com/golang/glog"
)

// FrameHandler is called when a frame is decoded.
type FrameHandler interface {
	HandleFrame(context.Context, *Frame) error
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(context.Context, *Frame) error

// HandleFrame implements FrameHandler.
func (f HandleFrameFunc) HandleFrame(ctx context.Context, frame *Frame) error {
	return f(ctx, frame)
}

// RejectNotifier is called when a frame is dropped by the parser.
type RejectNotifier interface {
	FrameRejected(context.Context, error)
}

// FrameRejectedFunc is func type of RejectNotifier.
type FrameRejectedFunc func(context.Context, error)

// FrameRejected implements RejectNotifier.
func (f FrameRejectedFunc) FrameRejected(ctx context.Context, err error) {
	f(ctx, err)
}

// Decoder reads a byte stream and decodes frames.
type Decoder struct {
	Reader   io.Reader
	Handler  FrameHandler
	Notifier RejectNotifier

	parser Parser
}

// NewDecoder creates a Decoder.
func NewDecoder(r io.Reader, mode ChecksumMode) *Decoder {
	d := &Decoder{Reader: r}
	d.parser.Mode = mode
	return d
}

// Name implements Named.
func (d *Decoder) Name() string {
	return "decoder"
}

// Run reads bytes until the reader is exhausted or ctx is done.
// The handler is called synchronously, so a blocking handler stalls reading.
func (d *Decoder) Run(ctx context.Context) error {
	byteCh, errCh := make(chan byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go d.readLoop(subCtx, byteCh, errCh)
	for {
		select {
		case b := <-byteCh:
			if err := d.applyParseResult(ctx, d.parser.Parse(b)); err != nil {
				return err
			}
		case err := <-errCh:
			if err == io.EOF {
				glog.V(2).Info("byte stream closed")
				return nil
			}
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (d *Decoder) readLoop(ctx context.Context, byteCh chan byte, errCh chan error) {
	buf := make([]byte, 1)
	for {
		n, err := d.Reader.Read(buf)
		if n > 0 {
			select {
			case byteCh <- buf[0]:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}

func (d *Decoder) applyParseResult(ctx context.Context, pr ParseResult) error {
	if pr.Err != nil {
		glog.Warningf("frame dropped: %v", pr.Err)
		if n := d.Notifier; n != nil {
			n.FrameRejected(ctx, pr.Err)
		}
		return nil
	}
	if pr.Frame == nil {
		return nil
	}
	glog.V(2).Infof("frame: %s", pr.Frame)
	if h := d.Handler; h != nil {
		return h.HandleFrame(ctx, pr.Frame)
	}
	return nil
}
