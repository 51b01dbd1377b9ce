package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"kestrel/internal/buffer"
	"kestrel/internal/selftest"
)

func newBenchCmd() *cobra.Command {
	cfg := selftest.DefaultBenchConfig()
	var format string
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time the containers on synthetic workloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "text", "json":
			default:
				return fmt.Errorf("unsupported format %q (must be text or json)", format)
			}
			return instrumented(cmd, func(ctx context.Context) error {
				results, err := selftest.Bench(ctx, cfg)
				if err != nil {
					return err
				}
				if format == "json" {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(results)
				}
				colorFlag, _ := cmd.Root().PersistentFlags().GetString("color")
				useColor, err := readColor(colorFlag, stdoutFile(cmd))
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), benchTable(results, cfg, useColor))
				return err
			})
		},
	}
	cmd.Flags().IntVar(&cfg.Keys, "keys", cfg.Keys, "keys (or items) per workload round")
	cmd.Flags().IntVar(&cfg.Rounds, "rounds", cfg.Rounds, "rounds per workload; the best one is reported")
	cmd.Flags().IntVarP(&cfg.Jobs, "jobs", "j", 0, "workloads run in parallel (0 = GOMAXPROCS)")
	cmd.Flags().StringVar(&format, "format", "text", "output format (text|json)")
	return cmd
}

func benchTable(results []selftest.BenchResult, cfg selftest.BenchConfig, useColor bool) string {
	head := color.New(color.Bold)
	if useColor {
		head.EnableColor()
	} else {
		head.DisableColor()
	}

	nameWidth := runewidth.StringWidth("workload")
	for _, r := range results {
		nameWidth = max(nameWidth, runewidth.StringWidth(r.Name))
	}
	out := buffer.New()
	out.Printf("%s  %12s  %10s  %8s  %7s  %7s\n",
		head.Sprint(runewidth.FillRight("workload", nameWidth)),
		"best", "per op", "buckets", "resizes", "chain")
	out.Printf("%s\n", strings.Repeat("-", nameWidth+2+12+2+10+2+8+2+7+2+7))
	for _, r := range results {
		out.Printf("%s  %12s  %10s", runewidth.FillRight(r.Name, nameWidth), r.Best, r.PerOp(cfg.Keys))
		if r.Stats != nil {
			out.Printf("  %8d  %7d  %7d", r.Stats.Buckets, r.Stats.Resizes, r.Stats.LongestChain)
		}
		out.AppendByte('\n')
	}
	out.Printf("%d keys, %d round(s)\n", cfg.Keys, cfg.Rounds)
	return out.Body()
}

// stdoutFile returns the command's stdout as a file when it is one, for
// terminal detection.
func stdoutFile(cmd *cobra.Command) *os.File {
	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		return f
	}
	return nil
}
