package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/fintrack/internal/config"
	"github.com/aristath/fintrack/internal/di"
	"github.com/aristath/fintrack/internal/history"
	"github.com/aristath/fintrack/internal/refresh"
	"github.com/aristath/fintrack/pkg/logger"
)

// openContainer loads configuration and wires the store without starting
// the scheduler.
func openContainer(ctx context.Context, opts *rootOptions) (*di.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{Level: opts.logLevel, Pretty: true, Output: os.Stderr})
	return di.Wire(ctx, cfg, log)
}

func newRefreshCmd(opts *rootOptions) *cobra.Command {
	var (
		serverURL string
		local     bool
	)

	cmd := &cobra.Command{
		Use:   "refresh <kind>",
		Short: "Run one refresh now and print its report",
		Long: `Asks the running fintrack server to run one refresh and waits for the report.
With --local the refresh runs in this process against the store directly; only use
it while the server is stopped, since the two would not share throttles or runs.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: kindNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := refresh.ParseKind(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var report refresh.RunReport
			if local {
				report, err = runLocal(ctx, opts, kind)
			} else {
				if serverURL == "" {
					if serverURL, err = defaultServerURL(); err != nil {
						return err
					}
				}
				report, err = newServerClient(serverURL).Refresh(ctx, kind)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(opts.out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if report.Failed() {
				return fmt.Errorf("%s run aborted: %s", kind, report.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", os.Getenv("FINTRACK_SERVER_URL"),
		"base URL of the running server (default http://localhost:$PORT)")
	cmd.Flags().BoolVar(&local, "local", false, "run in this process instead of on the server")
	return cmd
}

func runLocal(ctx context.Context, opts *rootOptions, kind refresh.Kind) (refresh.RunReport, error) {
	c, err := openContainer(ctx, opts)
	if err != nil {
		return refresh.RunReport{}, err
	}
	defer c.Close()
	return c.Coordinator.Run(ctx, kind)
}

func defaultServerURL() (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://localhost:%d", cfg.Port), nil
}

func newRunsCmd(opts *rootOptions) *cobra.Command {
	var (
		limit int
		kind  string
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent refresh runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer c.Close()

			var runs []refresh.RunReport
			if kind != "" {
				k, err := refresh.ParseKind(kind)
				if err != nil {
					return err
				}
				runs, err = c.HistoryRepo.RecentByKind(cmd.Context(), k, limit)
				if err != nil {
					return err
				}
			} else {
				runs, err = c.HistoryRepo.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
			}

			printRuns(opts, runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", history.DefaultLimit, "maximum runs to show")
	cmd.Flags().StringVar(&kind, "kind", "", "only show runs of this kind")
	return cmd
}

func printRuns(opts *rootOptions, runs []refresh.RunReport) {
	tw := tabwriter.NewWriter(opts.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tKIND\tDURATION\tUPDATED\tFAILED\tSKIPPED\tCONFIG\tERROR")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Kind,
			r.Duration().Round(time.Millisecond),
			r.Tally.Updated, r.Tally.Failed, r.Tally.Skipped, r.Tally.ConfigErrors,
			r.Error,
		)
	}
	_ = tw.Flush()
}

func kindNames() []string {
	out := make([]string, 0, len(refresh.AllKinds))
	for _, k := range refresh.AllKinds {
		out = append(out, string(k))
	}
	return out
}
