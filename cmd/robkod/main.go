package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/golang/glog"

	fx "github.com/robotalks/robko.go/pkg/framework"
	"github.com/robotalks/robko.go/pkg/l1"
	env "github.com/robotalks/robko.go/pkg/l1/env/controller"
	"github.com/robotalks/robko.go/pkg/robko"
)

// stdioPort is the device name selecting stdin/stdout as the link.
const stdioPort = "-"

type stdio struct {
	io.Reader
	io.Writer
}

// Close unblocks the pending read on stop.
func (stdio) Close() error {
	return os.Stdin.Close()
}

func init() {
	env.SetControllerType("robko01", l1.ControllerMeta{Description: "Robko01 Arm Controller"})
	env.SetupFlags()
	robko.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := robko.NewConfig()
	var link io.ReadWriter
	device := conf.Port
	if device == stdioPort {
		link = stdio{Reader: os.Stdin, Writer: os.Stdout}
	} else {
		port, err := conf.OpenPort()
		if err != nil {
			log.Fatalln(err)
		}
		defer port.Close()
		link, device = port, port.Device
	}

	dev, err := conf.NewDevice(link, fx.WallClock)
	if err != nil {
		log.Fatalln(err)
	}
	glog.Infof("robko01 on %s, sim=%v", device, conf.Sim)

	envConf := env.NewConfig()
	envConf.Info.Meta.Labels = map[string]string{
		"port":   device,
		"sim":    strconv.FormatBool(conf.Sim),
		"serial": strconv.FormatUint(uint64(dev.Controller.Settings.SerialNumber), 10),
	}
	telemetry := envConf.MustNewEnv(func() interface{} {
		return dev.Controller.Snapshot()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// the loop runs faster than the tick rate, Control paces the bus.
	loop := fx.NewLoop().WithInterval(conf.UpdateRate/2).Add(dev, telemetry)
	runner := fx.NewRunnerWith(ctx).HandleSignals().Go(loop)
	if err := runner.Wait(); err != nil && err != context.Canceled {
		glog.Flush()
		log.Fatalln(err)
	}
}
