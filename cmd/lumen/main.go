package main

import (
	"flag"
	"os"

	"github.com/charmbracelet/log"

	"lumen/internal/tui"
)

func main() {
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	flag.Parse()

	log.SetLevel(log.WarnLevel)
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	// Optional start directory as the first positional argument
	startPath := flag.Arg(0)

	if err := tui.Run(startPath); err != nil {
		log.Error("lumen", "err", err)
		os.Exit(1)
	}
}
