package bus

// PortA is the 8-bit digital port assembled from the nibbles at
// AddrPortALow and AddrPortAHigh. Both directions are cached: the output
// is committed and the input refreshed only when the scheduler visits
// the sub-address.
type PortA struct {
	out  byte
	inLo byte
	inHi byte
}

// SetOutput sets the output byte to be committed by the next bus cycle.
func (p *PortA) SetOutput(v byte) {
	p.out = v
}

// Output returns the cached output byte.
func (p *PortA) Output() byte {
	return p.out
}

// Input combines the input nibbles read by the last bus cycle.
func (p *PortA) Input() byte {
	return p.inLo&0x0f | (p.inHi&0x0f)<<4
}

// Service reads then writes the nibble of the selected sub-address.
// Other addresses are ignored.
func (p *PortA) Service(b *AddressBus, addr Address) error {
	var nibble byte
	switch addr {
	case AddrPortALow:
		nibble = p.out & 0x0f
	case AddrPortAHigh:
		nibble = p.out >> 4
	default:
		return nil
	}
	in, err := b.ReadInputNibble()
	if err != nil {
		return err
	}
	if addr == AddrPortALow {
		p.inLo = in
	} else {
		p.inHi = in
	}
	return b.WriteOutputNibble(nibble)
}
