package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"tipsvendor/service"
)

const cliVersion = "1.0.0"

var exit = os.Exit

func main() {
	exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	if len(args) < 1 {
		service.HandleCommand([]string{"help"})
		return 1
	}

	switch strings.ToLower(args[0]) {
	case "version", "-v", "--version":
		fmt.Fprintf(out, "tipsvendor version %s\n", cliVersion)
		return 0
	case "-h", "--help":
		return service.HandleCommand([]string{"help"})
	default:
		return service.HandleCommand(args)
	}
}
