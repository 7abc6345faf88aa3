package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"heapedit/coloransi"
	"heapedit/hexdump"
	"heapedit/patcher"
	"heapedit/process"
	"heapedit/process_blob"

	"github.com/urfave/cli"
)

const usage = `replaces the first occurrence of a string in the heap of a running process.
   The replacement may not be longer than the search string; the rest is zero filled.
   Options may follow the arguments. Put -- before a search or replace string that starts with '-'.`

// heapPatcher is the part of *patcher.Patcher the command drives
type heapPatcher interface {
	Patch(name string, req patcher.PatchRequest) (patcher.PatchOutcome, error)
	PatchPID(pid process.ProcessID, req patcher.PatchRequest) (patcher.PatchOutcome, error)
	Dump(name string) (process.ProcessInfo, process.MemoryRegion, []byte, error)
	DumpPID(pid process.ProcessID) (process.ProcessInfo, process.MemoryRegion, []byte, error)
}

type config struct {
	backend string
	verify  bool
}

type patcherFactory func(cfg config) (heapPatcher, error)

func newApp(stdout io.Writer, color bool, build patcherFactory) *cli.App {
	app := cli.NewApp()
	app.Name = "heapedit"
	app.Usage = usage
	app.ArgsUsage = "<process_name> <search_string> <replace_string>"
	app.HideVersion = true
	app.Writer = stdout
	app.ErrWriter = stdout
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "print-heap",
			Usage: "print the heap of the process instead of patching it",
		},
		cli.IntFlag{
			Name:  "pid",
			Usage: "use this pid instead of looking the process up by name",
		},
		cli.StringFlag{
			Name:   "backend",
			Usage:  "memory channel: mem (/proc/[pid]/mem) or vm (process_vm_readv/writev)",
			Value:  "mem",
			EnvVar: "HEAPEDIT_BACKEND",
		},
		cli.BoolFlag{
			Name:   "verify",
			Usage:  "re-read the match right before writing and abort if it changed",
			EnvVar: "HEAPEDIT_VERIFY",
		},
		cli.BoolFlag{
			Name:  "raw",
			Usage: "print the heap as a quoted byte string instead of a hexdump",
		},
		cli.IntFlag{
			Name:  "max-lines",
			Usage: "limit the hexdump to this many lines (0 prints everything)",
		},
		cli.BoolFlag{
			Name:  "no-color",
			Usage: "disable colored output",
		},
		cli.StringFlag{
			Name:  "save",
			Usage: "with --print-heap, also save the heap snapshot to this directory",
		},
		cli.StringFlag{
			Name:  "snapshot",
			Usage: "work on a heap snapshot saved with --save instead of a live process",
		},
		cli.BoolFlag{
			Name:  "dry-run",
			Usage: "patch a copy of the heap and show the result without writing to the process",
		},
	}
	app.Action = func(context *cli.Context) error {
		if err := checkArgs(context); err != nil {
			return err
		}

		cfg := config{
			backend: context.String("backend"),
			verify:  context.Bool("verify"),
		}
		useColor := color && !context.Bool("no-color")

		var (
			p    heapPatcher
			snap *process_blob.Snapshot
			err  error
		)
		if dir := context.String("snapshot"); dir != "" {
			if snap, err = process_blob.Load(dir); err != nil {
				return err
			}
			p = patcher.New(snap, snap, snap.Open, patcher.Options{Verify: cfg.verify})
		} else if p, err = build(cfg); err != nil {
			return err
		}

		switch {
		case context.Bool("print-heap"):
			return printHeap(stdout, p, context, useColor)
		case context.Bool("dry-run"):
			return dryRun(stdout, p, context, useColor)
		}

		outcome, err := patch(stdout, p, context)
		if err != nil {
			return err
		}
		if snap != nil && outcome.Status == patcher.StatusPatched {
			return snap.Save(context.String("snapshot"))
		}
		return nil
	}

	return app
}

// reorderArgs moves every option in args ahead of the positional arguments,
// so "heapedit target a b --verify" parses like "heapedit --verify target a b".
// Everything after "--" is positional.
func reorderArgs(app *cli.App, args []string) []string {
	if len(args) == 0 {
		return args
	}

	takesValue := map[string]bool{}
	for _, flag := range app.Flags {
		var value bool
		switch flag.(type) {
		case cli.BoolFlag, cli.BoolTFlag:
		default:
			value = true
		}
		for _, name := range strings.Split(flag.GetName(), ",") {
			takesValue[strings.TrimSpace(name)] = value
		}
	}

	flags := []string{args[0]}
	var positional []string
	dashDash := false
	for i := 1; i < len(args); i++ {
		arg := args[i]
		switch {
		case dashDash:
			positional = append(positional, arg)
		case arg == "--":
			dashDash = true
		case len(arg) > 1 && arg[0] == '-':
			flags = append(flags, arg)
			name := strings.TrimLeft(arg, "-")
			if strings.Contains(name, "=") {
				continue
			}
			if takesValue[name] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		default:
			positional = append(positional, arg)
		}
	}

	if dashDash {
		flags = append(flags, "--")
	}
	return append(flags, positional...)
}

// checkArgs validates the positional arguments against the selected mode
func checkArgs(context *cli.Context) error {
	if context.Int("pid") < 0 {
		return fmt.Errorf("invalid pid %d", context.Int("pid"))
	}

	expected := 3
	if context.Int("pid") > 0 {
		expected-- // no process name
	}
	if context.Bool("print-heap") {
		expected -= 2 // no search and replace strings
	}

	if context.NArg() != expected {
		return fmt.Errorf("%s: expected %d arguments, got %d", context.App.Name, expected, context.NArg())
	}
	return nil
}

// request splits the positional arguments into the target and the patch request
func request(context *cli.Context) (string, patcher.PatchRequest) {
	args := context.Args()
	if context.Int("pid") > 0 {
		return "", patcher.NewPatchRequest(args.Get(0), args.Get(1))
	}
	return args.First(), patcher.NewPatchRequest(args.Get(1), args.Get(2))
}

func runPatch(p heapPatcher, context *cli.Context) (patcher.PatchOutcome, error) {
	name, req := request(context)
	if pid := context.Int("pid"); pid > 0 {
		return p.PatchPID(process.ProcessID(pid), req)
	}
	return p.Patch(name, req)
}

func patch(stdout io.Writer, p heapPatcher, context *cli.Context) (patcher.PatchOutcome, error) {
	outcome, err := runPatch(p, context)
	if err != nil {
		return outcome, err
	}

	_, req := request(context)
	switch outcome.Status {
	case patcher.StatusPatched:
		fmt.Fprintf(stdout, "String '%s' replaced with '%s' at position %s.\n", req.Search, req.Replace, outcome.Address.ToString())
	case patcher.StatusPatternNotFound:
		fmt.Fprintln(stdout, "String not found in the heap.")
	default:
		return outcome, errors.New(outcome.Reason)
	}
	return outcome, nil
}

// dryRun patches an in-memory copy of the heap and prints the patched bytes
func dryRun(stdout io.Writer, p heapPatcher, context *cli.Context, color bool) error {
	name, req := request(context)
	if err := req.Validate(); err != nil {
		return err
	}

	info, region, data, err := dump(p, context)
	if err != nil {
		return err
	}

	snap := process_blob.NewSnapshot(info, region, data)
	replay := patcher.New(snap, snap, snap.Open, patcher.Options{})
	var outcome patcher.PatchOutcome
	if context.Int("pid") > 0 {
		outcome, err = replay.PatchPID(info.PID, req)
	} else {
		outcome, err = replay.Patch(name, req)
	}
	if err != nil {
		return err
	}
	if outcome.Status == patcher.StatusPatternNotFound {
		fmt.Fprintln(stdout, "String not found in the heap.")
		return nil
	}

	fmt.Fprintf(stdout, "Dry run: string '%s' would be replaced with '%s' at position %s.\n", req.Search, req.Replace, outcome.Address.ToString())

	// whole lines around the match
	start := uint64(outcome.Address-region.Start) &^ 15
	end := uint64(outcome.Address-region.Start) + uint64(len(req.Search))
	end = (end + 15) &^ 15
	if end > uint64(len(snap.Data)) {
		end = uint64(len(snap.Data))
	}

	options := hexdump.DefaultOptions()
	options.StartOffset = uint64(region.Start) + start
	options.OffsetWidth = 12
	options.Highlight = req.Replace
	options.Palette = coloransi.Palette{Enabled: color}
	fmt.Fprint(stdout, hexdump.Dump(snap.Data[start:end], options))
	return nil
}

func dump(p heapPatcher, context *cli.Context) (process.ProcessInfo, process.MemoryRegion, []byte, error) {
	if pid := context.Int("pid"); pid > 0 {
		return p.DumpPID(process.ProcessID(pid))
	}
	return p.Dump(context.Args().First())
}

func printHeap(stdout io.Writer, p heapPatcher, context *cli.Context, color bool) error {
	info, region, data, err := dump(p, context)
	if err != nil {
		return err
	}

	if dir := context.String("save"); dir != "" {
		if err := process_blob.NewSnapshot(info, region, data).Save(dir); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Heap of %s saved to %s\n", info.String(), dir)
	}

	if context.Bool("raw") {
		fmt.Fprintf(stdout, "%q\n", data)
		return nil
	}

	fmt.Fprintf(stdout, "Heap of %s: %s (%s)\n", info.String(), region.String(), region.Size().ToString())
	options := hexdump.DefaultOptions()
	options.MaxLines = context.Int("max-lines")
	options.Palette = coloransi.Palette{Enabled: color}
	fmt.Fprint(stdout, hexdump.Heap(region, data, options))
	return nil
}
