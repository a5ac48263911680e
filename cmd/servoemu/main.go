package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/servoemu/pkg/emulator"
	fx "github.com/robotalks/servoemu/pkg/framework"
)

func init() {
	emulator.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	emu := emulator.NewConfig().MustNewEmulator()
	glog.Infof("listening on %s, checksum %s", emu.Config.Source, emu.Config.Checksum)
	if err := fx.NewRunner().HandleSignals().Go(emu).Wait(); err != nil {
		glog.Exit(err)
	}
}
