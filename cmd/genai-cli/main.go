// genai-cli is a thin command-line driver over the generation engine: it
// wires a Client from a config file and dispatches one of a handful of
// subcommands (generate, stream, tokenize, models, tune) against it.
package main

import (
	"flag"
	"fmt"
	"os"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "configs/genai.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("genai-cli", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: genai-cli [-config path] <generate|stream|tokenize|models|tune> [args...]")
		os.Exit(2)
	}

	if err := run(*configPath, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
