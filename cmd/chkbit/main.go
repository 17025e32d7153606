// Command chkbit checks the data integrity of files by keeping a
// per-directory index of content hashes and reporting when a file's
// content no longer matches its index entry without a corresponding
// modification time change.
//
// Its command wiring follows the teacher's cmd/mutagen package: a single
// cobra.Command with a package-level configuration struct bound in init,
// fatal errors reported through a Fatal helper (pkg/chkbitcli) rather than
// being returned up through main.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/chkbit-go/chkbit/pkg/chkbit/engine"
	"github.com/chkbit-go/chkbit/pkg/chkbit/hashing"
	"github.com/chkbit-go/chkbit/pkg/chkbitcli"
	"github.com/chkbit-go/chkbit/pkg/logging"
)

// version is the chkbit release identifier reported by -V/--version.
const version = "1.0.0"

// defaultWorkers matches the original CLI's fixed default
// (_examples/original_source/chkbit_cli/main.py, chkbit/context.py) so
// default concurrency doesn't vary by host.
const defaultWorkers = 5

var rootConfiguration struct {
	update          bool
	force           bool
	skipSymlinks    bool
	algo            string
	showIgnoredOnly bool
	indexName       string
	ignoreName      string
	workers         int
	quiet           bool
	verbose         bool
	plain           bool
	logFile         string
	logVerbose      bool
	showVersion     bool
}

var rootCommand = &cobra.Command{
	Use:   "chkbit [flags] PATH...",
	Short: "Checks the data integrity of your files",
	RunE:  rootMain,
}

func init() {
	flags := rootCommand.Flags()
	flags.BoolVarP(&rootConfiguration.update, "update", "u", false, "update indices (without this chkbit will verify files in readonly mode)")
	flags.BoolVarP(&rootConfiguration.force, "force", "f", false, "force update of damaged items")
	flags.BoolVarP(&rootConfiguration.skipSymlinks, "skip-symlinks", "s", false, "do not follow symlinks")
	flags.StringVar(&rootConfiguration.algo, "algo", hashing.DefaultAlgorithm.String(), "hash algorithm: md5, sha512, blake3")
	flags.BoolVar(&rootConfiguration.showIgnoredOnly, "show-ignored-only", false, "only show which files are ignored and exit")
	flags.StringVar(&rootConfiguration.indexName, "index-name", ".chkbit", "filename where chkbit stores its hashes")
	flags.StringVar(&rootConfiguration.ignoreName, "ignore-name", ".chkbitignore", "filename that chkbit reads its ignore list from")
	flags.IntVarP(&rootConfiguration.workers, "workers", "w", defaultWorkers, "number of workers to use (default 5)")
	flags.BoolVarP(&rootConfiguration.quiet, "quiet", "q", false, "quiet, don't show progress/information")
	flags.BoolVarP(&rootConfiguration.verbose, "verbose", "v", false, "verbose output")
	flags.BoolVar(&rootConfiguration.plain, "plain", false, "show plain status instead of being fancy")
	flags.StringVarP(&rootConfiguration.logFile, "log-file", "l", "", "write diagnostic logging to this file instead of standard error")
	flags.BoolVar(&rootConfiguration.logVerbose, "log-verbose", false, "include debug-level messages in the log file")
	flags.BoolVarP(&rootConfiguration.showVersion, "version", "V", false, "show version information")

	cobra.EnableCommandSorting = false
}

func rootMain(command *cobra.Command, arguments []string) error {
	if rootConfiguration.showVersion {
		fmt.Println(version)
		return nil
	}

	if len(arguments) == 0 {
		return command.Help()
	}

	if rootConfiguration.update && rootConfiguration.showIgnoredOnly {
		return errors.New("--update and --show-ignored-only are mutually exclusive")
	}

	algo, err := hashing.ParseAlgorithm(rootConfiguration.algo)
	if err != nil {
		return err
	}

	if rootConfiguration.logFile != "" {
		f, err := os.OpenFile(rootConfiguration.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return errors.Wrap(err, "unable to open log file")
		}
		defer f.Close()
		logging.SetOutput(f)
	}
	if rootConfiguration.logVerbose {
		logging.RootLogger.SetLevel(logging.LevelDebug)
	} else {
		logging.RootLogger.SetLevel(logging.LevelInfo)
	}

	cfg := engine.Config{
		NumWorkers:      rootConfiguration.workers,
		Update:          rootConfiguration.update,
		Force:           rootConfiguration.force,
		SkipSymlinks:    rootConfiguration.skipSymlinks,
		ShowIgnoredOnly: rootConfiguration.showIgnoredOnly,
		IndexFilename:   rootConfiguration.indexName,
		IgnoreFilename:  rootConfiguration.ignoreName,
		DefaultAlgo:     algo,
	}

	mode := chkbitcli.ModeFancy
	switch {
	case rootConfiguration.quiet:
		mode = chkbitcli.ModeQuiet
	case !isatty.IsTerminal(os.Stdout.Fd()):
		mode = chkbitcli.ModeSummary
	case rootConfiguration.plain:
		mode = chkbitcli.ModePlain
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		if _, ok := <-sigs; ok {
			cancel()
		}
	}()

	renderer := chkbitcli.NewRenderer(mode, rootConfiguration.verbose, !rootConfiguration.update, cfg.NumWorkers)

	e := engine.New(cfg, logging.RootLogger.Sublogger("engine"))
	events := e.Run(ctx, arguments)

	sink := engine.Sink{Observer: renderer.Observe}
	sink.Drain(events)
	renderer.Finish()

	if ctx.Err() != nil {
		fmt.Println("abort")
		os.Exit(1)
	}

	failed := renderer.PrintSummary(rootConfiguration.update)
	if failed {
		os.Exit(1)
	}
	return nil
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		chkbitcli.Fatal(err)
	}
}
