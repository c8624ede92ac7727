package cmd

import (
	"fmt"
	"io"
	"os"
)

// consoleWriter global variable used to print output to console,
// used for capturing console output in tests
var consoleWriter io.Writer = os.Stdout

func consolePrintf(format string, a ...any) {
	_, _ = fmt.Fprintf(consoleWriter, format, a...)
}
