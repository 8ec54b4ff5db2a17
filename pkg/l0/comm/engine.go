package comm

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/robko.go/pkg/framework"
)

// QueueSize is the capacity of the receive queue.
const QueueSize = 64

// ResponseWriter sends the response of a request.
type ResponseWriter interface {
	Respond(status Status, payload []byte) error
}

// RequestHandler is called when a valid request is received.
type RequestHandler interface {
	HandleRequest(ctx context.Context, w ResponseWriter, req *Frame)
}

// HandleRequestFunc is func type of RequestHandler.
type HandleRequestFunc func(context.Context, ResponseWriter, *Frame)

// HandleRequest implements RequestHandler.
func (f HandleRequestFunc) HandleRequest(ctx context.Context, w ResponseWriter, req *Frame) {
	f(ctx, w, req)
}

// Engine is the device side of the protocol.
//
// Bytes are queued by Feed (or Run, reading from ReadWriter) and parsed by
// Service, which never blocks. Service is expected to be called from the
// control loop, so handlers run on the loop goroutine.
type Engine struct {
	ReadWriter io.ReadWriter
	Handler    RequestHandler
	// FrameTimeout abandons a partial frame when no byte arrives for
	// this long. Zero waits forever.
	FrameTimeout time.Duration
	Clock        fx.TimeSource

	queue     byteQueue
	parser    Parser
	lastByte  time.Time
	writeLock sync.Mutex
}

// NewEngine creates an Engine.
func NewEngine(rw io.ReadWriter) *Engine {
	return &Engine{ReadWriter: rw}
}

// Feed queues received bytes. Bytes not fitting in the queue are
// dropped, and the number of accepted bytes is returned.
func (e *Engine) Feed(p []byte) int {
	n := e.queue.push(p)
	if n < len(p) {
		glog.Warningf("receive queue full, %d bytes dropped", len(p)-n)
	}
	return n
}

// Service parses the queued bytes and dispatches complete requests.
func (e *Engine) Service(ctx context.Context) {
	now := e.now()
	var buf [QueueSize]byte
	n := e.queue.pop(buf[:])
	if n == 0 {
		if e.FrameTimeout > 0 && e.parser.Receiving() && now.Sub(e.lastByte) >= e.FrameTimeout {
			e.apply(ctx, e.parser.Timeout())
		}
		return
	}
	e.lastByte = now
	for _, b := range buf[:n] {
		e.apply(ctx, e.parser.Parse(b))
	}
}

// Send writes a frame.
func (e *Engine) Send(f *Frame) error {
	buf, err := f.Bytes()
	if err != nil {
		return err
	}
	e.writeLock.Lock()
	defer e.writeLock.Unlock()
	_, err = e.ReadWriter.Write(buf)
	return err
}

// Run reads from ReadWriter into the queue until the context is canceled
// or a read fails. A read returning no data (read timeout) is not an error.
// If ReadWriter is an io.Closer it's closed to unblock reading on cancel.
func (e *Engine) Run(ctx context.Context) error {
	loopCtl := fx.LoopCtlFrom(ctx)
	read := func() error {
		buf := make([]byte, QueueSize)
		for {
			n, err := e.ReadWriter.Read(buf)
			if n > 0 {
				e.Feed(buf[:n])
				if loopCtl != nil {
					loopCtl.TriggerNext()
				}
			}
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
	if closer, ok := e.ReadWriter.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, read)
	}
	return fx.RunWithContextCancel(ctx, nil, read)
}

// Control implements fx.Controller.
func (e *Engine) Control(cc fx.ControlContext) error {
	e.Service(cc.Context())
	return nil
}

// AddToLoop implements fx.LoopAdder.
func (e *Engine) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvSense, e)
}

func (e *Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock.Time()
	}
	return time.Now()
}

func (e *Engine) apply(ctx context.Context, pr ParseResult) {
	if pr.Err != nil {
		glog.V(3).Infof("frame discarded: %v", pr.Err)
	}
	f := pr.Frame
	if f == nil {
		return
	}
	if f.Type != TypeRequest {
		glog.V(3).Infof("ignored %s", f)
		return
	}
	glog.V(2).Infof("RCV %s", f)
	if h := e.Handler; h != nil {
		h.HandleRequest(ctx, &responder{engine: e, opcode: f.OpCode}, f)
	}
}

type responder struct {
	engine    *Engine
	opcode    byte
	responded bool
}

func (r *responder) Respond(status Status, payload []byte) error {
	if r.responded {
		return ErrAlreadyResponded
	}
	r.responded = true
	f := NewResponse(r.opcode, status, payload)
	glog.V(2).Infof("SND %s", f)
	return r.engine.Send(f)
}

// byteQueue is a bounded FIFO of bytes shared by the reader goroutine and
// the loop goroutine.
type byteQueue struct {
	lock  sync.Mutex
	buf   [QueueSize]byte
	head  int
	count int
}

func (q *byteQueue) push(p []byte) int {
	q.lock.Lock()
	defer q.lock.Unlock()
	n := 0
	for _, b := range p {
		if q.count == QueueSize {
			break
		}
		q.buf[(q.head+q.count)%QueueSize] = b
		q.count++
		n++
	}
	return n
}

func (q *byteQueue) pop(p []byte) int {
	q.lock.Lock()
	defer q.lock.Unlock()
	n := 0
	for n < len(p) && q.count > 0 {
		p[n] = q.buf[q.head]
		q.head = (q.head + 1) % QueueSize
		q.count--
		n++
	}
	return n
}
