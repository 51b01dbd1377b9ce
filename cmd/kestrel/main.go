package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"kestrel/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kestrel",
		Short:         "Scoped symbol tables: check, evaluate and benchmark",
		Long:          `kestrel evaluates scope scripts (TOML descriptions of nested symbol tables) and exercises the containers behind them`,
		Version:       version.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newScopesCmd())
	root.AddCommand(newSelftestCmd())
	root.AddCommand(newBenchCmd())
	root.AddCommand(newVersionCmd())

	// Глобальные флаги
	pf := root.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics kept per script")
	pf.String("ui", "auto", "progress UI for multi-script runs (auto|on|off)")

	pf.String("trace", "", "write trace events to file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	pf.String("trace-format", "auto", "trace output format (auto|text|ndjson)")
	pf.Int("trace-ring-size", 4096, "events kept in ring mode")
	pf.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0 disables)")

	pf.String("cpu-profile", "", "write CPU profile to file")
	pf.String("mem-profile", "", "write heap profile to file on exit")
	pf.String("runtime-trace", "", "write Go runtime trace to file")
	return root
}

// main builds the command tree and executes it; any command error exits 1.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
