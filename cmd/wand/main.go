// Command wand applies the label wand to volumes on disk and manages the
// undo history it leaves behind.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/labelwand/internal/fsutil"
	"github.com/banshee-data/labelwand/internal/version"
)

// errUsage marks bad command lines; main exits 2 for these.
var errUsage = errors.New("usage")

type app struct {
	stdout io.Writer
	stderr io.Writer
	fs     fsutil.FileSystem
}

func main() {
	flag.Usage = func() { printUsage(os.Stderr) }
	flag.Parse()

	a := &app{stdout: os.Stdout, stderr: os.Stderr, fs: fsutil.OSFileSystem{}}
	if err := a.run(flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		log.Fatalf("wand: %v", err)
	}
}

func (a *app) run(args []string) error {
	if len(args) < 1 {
		printUsage(a.stderr)
		return fmt.Errorf("%w: no command given", errUsage)
	}
	command, rest := args[0], args[1:]

	switch command {
	case "fill":
		return a.fill(rest)
	case "undo":
		return a.undo(rest)
	case "history":
		return a.history(rest)
	case "prune":
		return a.prune(rest)
	case "phantom":
		return a.phantom(rest)
	case "import":
		return a.importSlices(rest)
	case "preview":
		return a.preview(rest)
	case "effects":
		return a.effects(rest)
	case "serve":
		return a.serve(rest)
	case "migrate":
		return a.migrate(rest)
	case "version":
		fmt.Fprintln(a.stdout, version.String())
		return nil
	case "help":
		printUsage(a.stdout)
		return nil
	default:
		printUsage(a.stderr)
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `wand - region-growing label tool

Usage: wand <command> [options]

Commands:
  fill       Grow a label region from a seed and save the labels
  undo       Restore the labels saved before the last fill
  history    List the undo checkpoints of a label file
  prune      Keep only the newest checkpoints of a label file
  phantom    Write a synthetic background volume
  import     Build a background volume from PNG/JPEG slices
  preview    Render a slice of a volume with its labels as PNG
  effects    List the registered editor effects
  serve      Serve the debug pages for a checkpoint database
  migrate    Run checkpoint database migrations (up, down, version)
  version    Show build information
  help       Show this help message

Examples:
  wand phantom -out bg.vol -size 64x64x32 -noise 4
  wand fill -background bg.vol -labels labels.vol -seed 16,32,32 -tolerance 30 -preview slice.png
  wand undo -labels labels.vol
  wand serve -db wand.db -listen :8080

Run 'wand <command> -h' for the options of a command.
`)
}
