package comm

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/robko.go/pkg/framework"
)

// DefaultTimeout is the response timeout of Call.
const DefaultTimeout = time.Second

// Result is the result of a command using Do.
type Result struct {
	Err    error
	Status Status
	Data   []byte
}

// Command represents a pending command waiting for reply.
type Command struct {
	opcode   byte
	resultCh chan Result
	next     *Command
}

// OpCode returns the request opcode.
func (c *Command) OpCode() byte {
	return c.opcode
}

// ResultChan returns the chan to retrieve result.
func (c *Command) ResultChan() <-chan Result {
	return c.resultCh
}

// Client is the host side of the protocol.
//
// Responses carry no sequence number, so a response completes the oldest
// pending command with the same opcode, and older pending commands are
// completed with ErrNoReply.
type Client struct {
	ReadWriter io.ReadWriter
	Timeout    time.Duration

	parser    Parser
	writeLock sync.Mutex
	callLock  sync.Mutex
	cmdsLock  sync.Mutex
	cmdsHead  *Command
	cmdsTail  *Command
}

// NewClient creates a Client.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{ReadWriter: rw, Timeout: DefaultTimeout}
}

// DoWith sends a request and expects a result in the provided chan.
func (c *Client) DoWith(req *Frame, ch chan Result) *Command {
	cmd := &Command{opcode: req.OpCode, resultCh: ch}
	buf, err := req.Bytes()
	if err != nil {
		cmd.resultCh <- Result{Err: err}
		return cmd
	}

	c.cmdsLock.Lock()
	if c.cmdsHead == nil {
		c.cmdsHead = cmd
	} else {
		c.cmdsTail.next = cmd
	}
	c.cmdsTail = cmd
	c.cmdsLock.Unlock()

	c.writeLock.Lock()
	_, err = c.ReadWriter.Write(buf)
	c.writeLock.Unlock()
	if err != nil && c.remove(cmd) {
		cmd.resultCh <- Result{Err: err}
	}
	glog.V(2).Infof("SND %s", req)
	return cmd
}

// Do sends a request and returns a Command for result.
func (c *Client) Do(req *Frame) *Command {
	return c.DoWith(req, make(chan Result, 1))
}

// Call sends a request and waits for the response.
// Only one call is outstanding at a time. A response with a status other
// than Ok is returned as *ResponseError.
func (c *Client) Call(ctx context.Context, opcode byte, payload []byte) ([]byte, error) {
	c.callLock.Lock()
	defer c.callLock.Unlock()

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cmd := c.Do(NewRequest(opcode, payload))
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		c.remove(cmd)
		return nil, ctx.Err()
	case <-timer.C:
		if c.remove(cmd) {
			return nil, ErrTimeout
		}
	case res := <-cmd.resultCh:
		return res.data(opcode)
	}
	// completed right after the timer fired.
	return (<-cmd.resultCh).data(opcode)
}

// HandleFrame completes a pending command.
func (c *Client) HandleFrame(f *Frame) {
	if f.Type != TypeResponse {
		glog.V(3).Infof("ignored %s", f)
		return
	}
	glog.V(2).Infof("RCV %s", f)
	c.cmdsLock.Lock()
	curr := c.cmdsHead
	for ; curr != nil; curr = curr.next {
		if curr.opcode == f.OpCode {
			break
		}
	}
	if curr == nil {
		c.cmdsLock.Unlock()
		glog.V(3).Infof("unexpected %s", f)
		return
	}
	head := c.cmdsHead
	if c.cmdsHead = curr.next; c.cmdsHead == nil {
		c.cmdsTail = nil
	}
	curr.next = nil
	c.cmdsLock.Unlock()

	for ; head != curr; head = head.next {
		head.resultCh <- Result{Err: ErrNoReply}
	}
	curr.resultCh <- Result{Status: f.Status, Data: f.Payload}
}

// Run reads responses until the context is canceled or a read fails.
func (c *Client) Run(ctx context.Context) error {
	read := func() error {
		buf := make([]byte, MaxFrameLen)
		for {
			n, err := c.ReadWriter.Read(buf)
			for _, b := range buf[:n] {
				pr := c.parser.Parse(b)
				if pr.Err != nil {
					glog.V(3).Infof("frame discarded: %v", pr.Err)
				}
				if pr.Frame != nil {
					c.HandleFrame(pr.Frame)
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
	if closer, ok := c.ReadWriter.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, read)
	}
	return fx.RunWithContextCancel(ctx, nil, read)
}

func (c *Client) remove(cmd *Command) bool {
	c.cmdsLock.Lock()
	defer c.cmdsLock.Unlock()
	var prev *Command
	for curr := c.cmdsHead; curr != nil; prev, curr = curr, curr.next {
		if curr != cmd {
			continue
		}
		if prev == nil {
			c.cmdsHead = curr.next
		} else {
			prev.next = curr.next
		}
		if c.cmdsTail == curr {
			c.cmdsTail = prev
		}
		curr.next = nil
		return true
	}
	return false
}

func (r Result) data(opcode byte) ([]byte, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	if r.Status != StatusOk {
		return r.Data, &ResponseError{OpCode: opcode, Status: r.Status}
	}
	return r.Data, nil
}
