// Package arm provides shell commands of the Robko01 arm.
package arm

import (
	"context"
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/robko.go/pkg/cli/sh"
	"github.com/robotalks/robko.go/pkg/robko"
)

// MovingState is the printable motor state.
type MovingState struct {
	State robko.MotorState `json:"state"`
	Axes  []string         `json:"axes"`
}

func (s MovingState) String() string {
	return fmt.Sprintf("0x%02x %s", byte(s.State), s.State)
}

// ParseJointPosition parses position and speed pairs in axis order.
func ParseJointPosition(args []string) (p robko.JointPosition, err error) {
	if len(args) != robko.AxisCount*2 {
		return p, fmt.Errorf("%d values expected (POS SPEED per axis), got %d", robko.AxisCount*2, len(args))
	}
	var values [robko.AxisCount * 2]int16
	for n, arg := range args {
		val, err := strconv.ParseInt(arg, 0, 16)
		if err != nil {
			return p, fmt.Errorf("Invalid value %q: %v", arg, err)
		}
		values[n] = int16(val)
	}
	return robko.JointPositionFromValues(values), nil
}

// ParseByte parses a byte in decimal, hex (0x) or binary (0b).
func ParseByte(arg string) (byte, error) {
	val, err := strconv.ParseUint(arg, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("Invalid byte %q: %v", arg, err)
	}
	return byte(val), nil
}

func simple(fn func(r *robko.Remote, ctx context.Context) error) func(c *ishell.Context) {
	return sh.MustBeConnected(func(c *ishell.Context) {
		sh.Do(c, func(ctx context.Context, r *robko.Remote) (interface{}, error) {
			return nil, fn(r, ctx)
		})
	})
}

func positions(fn func(r *robko.Remote, ctx context.Context) ([robko.AxisCount]int16, error)) func(c *ishell.Context) {
	return sh.MustBeConnected(func(c *ishell.Context) {
		sh.Do(c, func(ctx context.Context, r *robko.Remote) (interface{}, error) {
			return fn(r, ctx)
		})
	})
}

var (
	// PingCmd checks the controller is responsive.
	PingCmd = ishell.Cmd{
		Name: "ping",
		Help: "",
		Func: simple((*robko.Remote).Ping),
	}

	// StopCmd stops all axes.
	StopCmd = ishell.Cmd{
		Name:    "stop",
		Aliases: []string{"s"},
		Help:    "",
		Func:    simple((*robko.Remote).Stop),
	}

	// EnableCmd enables the motors.
	EnableCmd = ishell.Cmd{
		Name: "enable",
		Help: "",
		Func: simple((*robko.Remote).Enable),
	}

	// DisableCmd releases the motors.
	DisableCmd = ishell.Cmd{
		Name: "disable",
		Help: "",
		Func: simple((*robko.Remote).Disable),
	}

	// ClearCmd zeros the positions.
	ClearCmd = ishell.Cmd{
		Name: "clear",
		Help: "",
		Func: simple((*robko.Remote).Clear),
	}

	// MoveCmd moves the axes.
	MoveCmd = ishell.Cmd{
		Name:    "move",
		Aliases: []string{"m"},
		Help:    "rel|abs|speed POS SPEED (x6: base shoulder elbow left-diff right-diff gripper)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("MODE required"))
				return
			}
			var move func(*robko.Remote, context.Context, robko.JointPosition) error
			switch c.Args[0] {
			case "rel", "relative":
				move = (*robko.Remote).MoveRelative
			case "abs", "absolute":
				move = (*robko.Remote).MoveAbsolute
			case "speed":
				move = (*robko.Remote).MoveAtSpeed
			default:
				c.Err(fmt.Errorf("Invalid MODE %q", c.Args[0]))
				return
			}
			p, err := ParseJointPosition(c.Args[1:])
			if err != nil {
				c.Err(err)
				return
			}
			sh.Do(c, func(ctx context.Context, r *robko.Remote) (interface{}, error) {
				return nil, move(r, ctx, p)
			})
		}),
	}

	// PosCmd queries the positions.
	PosCmd = ishell.Cmd{
		Name:    "pos",
		Aliases: []string{"p"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.Do(c, func(ctx context.Context, r *robko.Remote) (interface{}, error) {
				return r.Position(ctx)
			})
		}),
	}

	// MovingCmd queries the moving axes.
	MovingCmd = ishell.Cmd{
		Name: "moving",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.Do(c, func(ctx context.Context, r *robko.Remote) (interface{}, error) {
				state, err := r.MotorState(ctx)
				if err != nil {
					return nil, err
				}
				s := MovingState{State: state, Axes: []string{}}
				for _, axis := range state.Axes() {
					s.Axes = append(s.Axes, axis.String())
				}
				return s, nil
			})
		}),
	}

	// PortACmd reads or writes Port A.
	PortACmd = ishell.Cmd{
		Name: "porta",
		Help: "[get] | set VALUE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) == 0 || c.Args[0] == "get" {
				sh.Do(c, func(ctx context.Context, r *robko.Remote) (interface{}, error) {
					return r.PortA(ctx)
				})
				return
			}
			if c.Args[0] != "set" || len(c.Args) < 2 {
				c.Err(fmt.Errorf("VALUE required"))
				return
			}
			v, err := ParseByte(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			sh.Do(c, func(ctx context.Context, r *robko.Remote) (interface{}, error) {
				return nil, r.SetPortA(ctx, v)
			})
		}),
	}

	// IDCmd reads or writes the robot ID.
	IDCmd = ishell.Cmd{
		Name: "id",
		Help: "[get] | set ID",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) == 0 || c.Args[0] == "get" {
				sh.Do(c, func(ctx context.Context, r *robko.Remote) (interface{}, error) {
					return r.RobotID(ctx)
				})
				return
			}
			if c.Args[0] != "set" || len(c.Args) < 2 {
				c.Err(fmt.Errorf("ID required"))
				return
			}
			id, err := strconv.ParseUint(c.Args[1], 0, 32)
			if err != nil {
				c.Err(fmt.Errorf("Invalid ID: %v", err))
				return
			}
			sh.Do(c, func(ctx context.Context, r *robko.Remote) (interface{}, error) {
				return nil, r.SetRobotID(ctx, uint32(id))
			})
		}),
	}

	// SaveCmd stores the positions on the controller.
	SaveCmd = ishell.Cmd{
		Name: "save",
		Help: "",
		Func: positions((*robko.Remote).SavePosition),
	}

	// LoadCmd restores the stored positions.
	LoadCmd = ishell.Cmd{
		Name: "load",
		Help: "",
		Func: positions((*robko.Remote).LoadPosition),
	}
)

func init() {
	sh.AddCmds(
		&PingCmd,
		&StopCmd,
		&EnableCmd,
		&DisableCmd,
		&ClearCmd,
		&MoveCmd,
		&PosCmd,
		&MovingCmd,
		&PortACmd,
		&IDCmd,
		&SaveCmd,
		&LoadCmd,
	)
}
