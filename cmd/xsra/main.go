package main

import (
	"github.com/grailbio/base/grail"

	"github.com/grailbio/xsra/cmd/xsra/cmd"
)

func main() {
	shutdown := grail.Init()
	defer shutdown()
	cmd.Run()
}
