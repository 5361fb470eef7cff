package main

import (
	"github.com/robotalks/repcode/pkg/cli/sh"
	"github.com/robotalks/repcode/pkg/env"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
