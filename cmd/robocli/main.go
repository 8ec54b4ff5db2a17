package main

import (
	"github.com/robotalks/robko.go/pkg/cli/sh"

	_ "github.com/robotalks/robko.go/pkg/cli/cmds/arm"
)

//go-build: CGO_ENABLED=0

func main() {
	sh.Main()
}
