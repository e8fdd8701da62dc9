// Command perf2statemap decodes a perf.data capture of scheduler and
// IRQ tracepoints into a per-CPU statemap JSON-lines timeline.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/lx7/perf2statemap/driver"
)

func main() {
	var (
		flagVerbose = flag.Bool("v", false, "enable verbose logging")
		flagSysroot = flag.String("sysroot", "", "sysroot to read tracepoint format files from")
	)
	flag.BoolVar(flagVerbose, "verbose", false, "enable verbose logging")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: perf2statemap [flags] <input> [output]")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := driver.Config{
		Input:   flag.Arg(0),
		Sysroot: *flagSysroot,
		Verbose: *flagVerbose,
	}
	if flag.NArg() == 2 {
		cfg.Output = flag.Arg(1)
	}

	if err := driver.Run(cfg); err != nil {
		log.Fatal(err)
	}
}
