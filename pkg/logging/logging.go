package logging

import (
	"io"
	"log"
	"os"
)

func init() {
	// Set the global logger to use standard error by default so that normal
	// status output on standard output stays clean; -l/--log-file redirects
	// this via SetOutput.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime)
}

// SetOutput redirects all log output (used by -l/--log-file).
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}
