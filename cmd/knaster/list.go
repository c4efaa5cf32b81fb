package main

import (
	"flag"
	"fmt"

	"github.com/ErikNatanael/knaster-sub000/vst2"
)

type listCommand struct {
	scan stringList
}

func (cmd *listCommand) Name() string {
	return "list"
}

func (cmd *listCommand) Help() string {
	return "Show the list of available effect plugins"
}

func (cmd *listCommand) Register(fs *flag.FlagSet) {
	fs.Var(&cmd.scan, "scan", "semicolon separated paths to scan for effects")
}

func (cmd *listCommand) Run() error {
	paths := append(vst2.DefaultScanPaths(), cmd.scan...)
	fmt.Println("Scan paths:")
	for _, path := range paths {
		fmt.Printf("\t%v\n", path)
	}
	fmt.Println("Available plugins:")
	for _, plugin := range vst2.Scan(paths...) {
		fmt.Printf("\t%v\n", plugin)
	}
	return nil
}
