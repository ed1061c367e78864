/*******************************************************************************
 * Copyright (c) 2026 Genome Research Ltd.
 *
 * Permission is hereby granted, free of charge, to any person obtaining
 * a copy of this software and associated documentation files (the
 * "Software"), to deal in the Software without restriction, including
 * without limitation the rights to use, copy, modify, merge, publish,
 * distribute, sublicense, and/or sell copies of the Software, and to
 * permit persons to whom the Software is furnished to do so, subject to
 * the following conditions:
 *
 * The above copyright notice and this permission notice shall be included
 * in all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
 * EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
 * MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
 * IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY
 * CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT,
 * TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE
 * SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 ******************************************************************************/

// package cmd is the cobra file that enables subcommands and handles
// command-line args.

package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/inconshreveable/log15"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// environment variables that supply flag defaults; a .env file in the
// working directory is read first, real environment winning.
const (
	envDB     = "AMPLICLASS_DB"
	envBlastn = "AMPLICLASS_BLASTN"
)

// appLogger is used for logging events in our commands.
var appLogger = log15.New()

// dbPath is the reference database every subcommand operates on.
var dbPath string

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "ampliclass",
	Short: "ampliclass assigns amplicon reads to taxa using a curated reference database.",
	Long: `ampliclass assigns amplicon reads to taxa using a curated reference database.

The 'prepare-reads' subcommand turns raw sample reads into abundance-annotated
unique sequences (ASVs).

The 'classify' subcommand matches prepared ASVs against the reference
database.

The 'load-tax', 'ncbi-import', 'curated-import' and 'conflicts' subcommands
build and audit the reference database, and 'dump' round-trips it for
distribution.

The 'edit-graph' subcommand builds a sequence-relationship graph for
visualization and QC.`,
}

func init() {
	// set up logging to stderr
	appLogger.SetHandler(log15.LvlFilterHandler(log15.LvlInfo, log15.StderrHandler))

	RootCmd.PersistentFlags().StringVarP(&dbPath, "database", "d", "",
		"path to the reference database (or $"+envDB+")")
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen once
// to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		die("%s", err.Error())
	}
}

// databasePath returns the --database flag, falling back to a .env file and
// the environment, dying if neither is set.
func databasePath() string {
	if dbPath != "" {
		return dbPath
	}

	if path := envValue(envDB); path != "" {
		return path
	}

	die("no reference database given; use --database or set $%s", envDB)

	return ""
}

// envValue looks a key up in a .env file in the working directory, letting
// the real environment override it.
func envValue(key string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	env, err := godotenv.Read()
	if err != nil {
		return ""
	}

	return env[key]
}

// cliPrint outputs the message to STDOUT.
func cliPrint(msg string, a ...any) {
	fmt.Fprintf(os.Stdout, msg, a...)
}

// info is a convenience to log a message at the Info level.
func info(msg string, a ...any) {
	appLogger.Info(fmt.Sprintf(msg, a...))
}

// warn is a convenience to log a message at the Warn level.
func warn(msg string, a ...any) {
	appLogger.Warn(fmt.Sprintf(msg, a...))
}

// die is a convenience to log a message at the Error level and exit non
// zero.
func die(msg string, a ...any) {
	appLogger.Error(fmt.Sprintf(msg, a...))
	os.Exit(1)
}

// setCLIFormat logs plain text log messages to STDERR.
func setCLIFormat() {
	appLogger.SetHandler(log15.StreamHandler(os.Stderr, cliFormat()))
}

// cliFormat returns a log15.Format that only prints the plain log msg.
func cliFormat() log15.Format { //nolint:ireturn
	return log15.FormatFunc(func(r *log15.Record) []byte {
		b := &bytes.Buffer{}
		fmt.Fprintf(b, "%s\n", r.Msg)

		return b.Bytes()
	})
}
