package comm

// Parser reassembles frames from a byte stream, one byte per step.
type Parser struct {
	state     parseState
	buf       [MaxFrameLen]byte
	pos       int
	remaining int
}

// ParseResult is the result after one parsing step.
type ParseResult struct {
	// Frame is set when a valid frame completes.
	Frame *Frame
	// Err is set when bytes were discarded and the parser resynced.
	Err error
}

type parseState int

const (
	stateSentinel parseState = iota // waiting for the sentinel
	stateType                       // waiting for frame type
	stateLength                     // waiting for length field
	stateOpCode                     // waiting for opcode
	stateData                       // collecting status and payload
	stateChecksum                   // collecting checksum bytes
)

// Receiving indicates a partial frame is being collected.
func (p *Parser) Receiving() bool {
	return p.state != stateSentinel
}

// Reset drops any partial frame.
func (p *Parser) Reset() {
	p.state, p.pos, p.remaining = stateSentinel, 0, 0
}

// Timeout abandons a partial frame.
func (p *Parser) Timeout() (pr ParseResult) {
	if p.state != stateSentinel {
		pr.Err = p.resync(ErrFrameTimeout)
	}
	return
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	switch p.state {
	case stateSentinel:
		if b == Sentinel {
			p.pos = 0
			p.push(b)
			p.state = stateType
		}
	case stateType:
		if !FrameType(b).IsValid() {
			pr.Err = p.resync(ErrFrameType)
			return
		}
		p.push(b)
		p.state = stateLength
	case stateLength:
		if b < 1 || int(b) > MaxLengthField {
			pr.Err = p.resync(ErrFrameLength)
			return
		}
		p.push(b)
		p.state = stateOpCode
	case stateOpCode:
		p.push(b)
		if length := int(p.buf[2]); length > 1 {
			p.remaining, p.state = length-1, stateData
		} else {
			p.remaining, p.state = checksumLen, stateChecksum
		}
	case stateData:
		p.push(b)
		if p.remaining--; p.remaining == 0 {
			p.remaining, p.state = checksumLen, stateChecksum
		}
	case stateChecksum:
		p.push(b)
		if p.remaining--; p.remaining == 0 {
			frame, err := Decode(p.buf[:p.pos])
			p.Reset()
			pr.Frame, pr.Err = frame, err
		}
	}
	return
}

func (p *Parser) push(b byte) {
	p.buf[p.pos] = b
	p.pos++
}

func (p *Parser) resync(err error) error {
	p.Reset()
	return err
}
