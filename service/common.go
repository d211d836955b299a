package service

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"tipsvendor/app/config"
)

// Swapped out by tests.
var (
	osExit             = os.Exit
	stdout   io.Writer = os.Stdout
	stdin    io.Reader = os.Stdin
	loadConf           = func() (*config.Config, error) { return config.Load(getCurrentDirectory()) }
)

func getCurrentDirectory() string {
	dir, err := os.Getwd()
	if err != nil {
		log.Fatalf("Failed to get current directory: %v", err)
	}
	return dir
}

func outf(format string, a ...any) {
	fmt.Fprintf(stdout, format, a...)
}

func outln(a ...any) {
	fmt.Fprintln(stdout, a...)
}

// confirm asks a yes/no question; anything but y or Y is a no.
func confirm(question string) bool {
	outf("%s [y/N] ", question)
	line, _ := bufio.NewReader(stdin).ReadString('\n')
	answer := strings.TrimSpace(line)
	return answer == "y" || answer == "Y"
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
