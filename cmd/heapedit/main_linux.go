//go:build linux

package main

import (
	"fmt"
	"os"

	"heapedit/patcher"
	"heapedit/process_linux"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

func main() {
	color := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	app := newApp(colorable.NewColorable(os.Stdout), color, newLinuxPatcher)

	if err := app.Run(reorderArgs(app, os.Args)); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLinuxPatcher(cfg config) (heapPatcher, error) {
	open, err := process_linux.NewOpener(cfg.backend)
	if err != nil {
		return nil, err
	}
	return patcher.New(
		process_linux.NewProcessFinder(),
		process_linux.NewHeapLocator(),
		open,
		patcher.Options{Verify: cfg.verify},
	), nil
}
