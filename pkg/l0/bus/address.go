// Package bus drives the time-division multiplexed Robko01 address bus.
//
// The bus has 3 address lines, an IO-Write and an IO-Read strobe,
// 4 output data lines and 4 input data lines. Addresses 0..5 latch the
// coil patterns of the six axis drivers, addresses 6 and 7 are the low
// and high nibbles of Port A.
package bus

import "fmt"

// Address is a bus address.
type Address byte

// Bus addresses.
const (
	AddrBase Address = iota
	AddrShoulder
	AddrElbow
	AddrLeftDiff
	AddrRightDiff
	AddrGripper
	AddrPortALow
	AddrPortAHigh
)

const (
	// AddressCount is the number of bus addresses.
	AddressCount = 8
	// AxisCount is the number of axis addresses, starting from 0.
	AxisCount = 6
)

// IsAxis indicates the address latches an axis driver.
func (a Address) IsAxis() bool {
	return a < AxisCount
}

// IsValid indicates the address is selectable.
func (a Address) IsValid() bool {
	return a < AddressCount
}

var addressNames = [AddressCount]string{
	"base", "shoulder", "elbow", "left-diff", "right-diff", "gripper", "port-a-lo", "port-a-hi",
}

// String implements fmt.Stringer.
func (a Address) String() string {
	if a.IsValid() {
		return addressNames[a]
	}
	return fmt.Sprintf("address(%d)", byte(a))
}
