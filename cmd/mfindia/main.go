// mfindia: Indian mutual fund data from AMFI, MFAPI and Value Research.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/seenimoa/mfindia/api"
	"github.com/seenimoa/mfindia/internal/config"
	"github.com/seenimoa/mfindia/internal/logging"
	"github.com/seenimoa/mfindia/pkg/mftool"
	"github.com/seenimoa/mfindia/pkg/models"
	"github.com/seenimoa/mfindia/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the state shared by all commands of one invocation.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	format mftool.Format
	client *mftool.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "mfindia",
		Short: "Indian mutual fund NAVs, scheme details and category performance",
		Long: `mfindia queries public Indian mutual fund data:
latest NAVs from the AMFI NAV feed, scheme details and NAV history from
api.mfapi.in, and open-ended equity category performance from Value Research.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	root.PersistentFlags().StringP("output", "o", "none", "output format (none, json, yaml)")

	root.AddCommand(
		newVersionCmd(),
		newCodesCmd(a),
		newSearchCmd(a),
		newValidateCmd(a),
		newQuoteCmd(a),
		newDetailsCmd(a),
		newHistoryCmd(a),
		newValueCmd(a),
		newPerformanceCmd(a),
		newCategoriesCmd(a),
		newStatusCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	var err error
	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		a.cfg, err = config.LoadFromFile(configFile)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		a.cfg.Logging.Level = level
	}
	out, _ := cmd.Flags().GetString("output")
	if a.format, err = mftool.ParseFormat(out); err != nil {
		return err
	}

	a.log = logging.New(a.cfg.Logging, cmd.ErrOrStderr())
	a.client = mftool.New(mftool.WithConfig(a.cfg), mftool.WithLogger(a.log))
	return nil
}

// context bounds a command by the configured HTTP timeout for each upstream
// request it may make.
func (a *app) context(cmd *cobra.Command, requests int) (context.Context, context.CancelFunc) {
	timeout := a.cfg.HTTP.Timeout()
	if timeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), time.Duration(requests)*timeout)
}

// emit renders v in the selected format, or calls human for FormatNone.
func (a *app) emit(cmd *cobra.Command, v any, human func()) error {
	if a.format == mftool.FormatNone {
		human()
		return nil
	}
	out, err := mftool.Render(v, a.format)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// --- Version Command ---

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "mfindia %s\n", version)
			fmt.Fprintf(w, "  commit:  %s\n", commit)
			fmt.Fprintf(w, "  built:   %s\n", date)
		},
	}
}

// --- Scheme directory ---

func newCodesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "codes",
		Short: "List every scheme code with its name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd, 1)
			defer cancel()

			codes, err := a.client.GetSchemeCodes(ctx)
			if err != nil {
				return err
			}
			return a.emit(cmd, codes, func() {
				w := cmd.OutOrStdout()
				for _, code := range codes.Codes() {
					fmt.Fprintf(w, "%-8s %s\n", code, codes[code])
				}
			})
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search [text]",
		Short: "Find schemes whose name contains text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd, 1)
			defer cancel()

			schemes, err := a.client.SearchSchemes(ctx, args[0])
			if err != nil {
				return err
			}
			return a.emit(cmd, schemes, func() {
				printSchemes(cmd.OutOrStdout(), schemes)
			})
		},
	}
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [code]",
		Short: "Check whether a scheme code exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd, 1)
			defer cancel()

			ok, err := a.client.IsValidCode(ctx, args[0])
			if err != nil {
				return err
			}
			return a.emit(cmd, ok, func() {
				fmt.Fprintln(cmd.OutOrStdout(), ok)
			})
		},
	}
}

// --- Quote and valuation ---

func newQuoteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "quote [code]",
		Short: "Show the latest NAV of a scheme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd, 2)
			defer cancel()

			q, err := a.client.GetSchemeQuote(ctx, args[0])
			if err != nil {
				return err
			}
			return a.emit(cmd, q, func() {
				printQuote(cmd.OutOrStdout(), q)
			})
		},
	}
}

func newValueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "value [code] [units]",
		Short: "Value a unit holding at the latest NAV",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd, 2)
			defer cancel()

			v, err := a.client.CalculateBalanceUnitsValue(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return a.emit(cmd, v, func() {
				w := cmd.OutOrStdout()
				printQuote(w, &v.SchemeQuote)
				amount, err := decimal.NewFromString(v.BalanceUnitsValue)
				if err != nil {
					fmt.Fprintf(w, "  %-14s %s\n", "Value:", v.BalanceUnitsValue)
					return
				}
				fmt.Fprintf(w, "  %-14s %s\n", "Value:", utils.FormatINR(amount))
			})
		},
	}
}

// --- Details and history ---

func newDetailsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "details [code]",
		Short: "Show scheme metadata and its first NAV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd, 2)
			defer cancel()

			d, err := a.client.GetSchemeDetails(ctx, args[0])
			if err != nil {
				return err
			}
			return a.emit(cmd, d, func() {
				printDetails(cmd.OutOrStdout(), d)
			})
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [code]",
		Short: "Show the NAV history of a scheme",
		Long: `Show the NAV history of a scheme, newest first.
Use --year for one calendar year, or --from/--to (dd-mm-yyyy) for a date range.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, _ := cmd.Flags().GetString("year")
			fromStr, _ := cmd.Flags().GetString("from")
			toStr, _ := cmd.Flags().GetString("to")

			ctx, cancel := a.context(cmd, 2)
			defer cancel()

			var (
				h   *models.HistoricalNAV
				err error
			)
			switch {
			case year != "" && (fromStr != "" || toStr != ""):
				return fmt.Errorf("--year cannot be combined with --from/--to")
			case year != "":
				h, err = a.client.GetSchemeHistoricalNAVYear(ctx, args[0], year)
			case fromStr != "" || toStr != "":
				from, to, perr := parseRange(fromStr, toStr)
				if perr != nil {
					return perr
				}
				h, err = a.client.GetSchemeHistoricalNAVRange(ctx, args[0], from, to)
			default:
				h, err = a.client.GetSchemeHistoricalNAV(ctx, args[0])
			}
			if err != nil {
				return err
			}
			return a.emit(cmd, h, func() {
				printHistory(cmd.OutOrStdout(), h)
			})
		},
	}
	cmd.Flags().String("year", "", "restrict to one calendar year")
	cmd.Flags().String("from", "", "first date of the range (dd-mm-yyyy or yyyy-mm-dd)")
	cmd.Flags().String("to", "", "last date of the range (dd-mm-yyyy or yyyy-mm-dd, default today)")
	return cmd
}

func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	if fromStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--from is required with --to")
	}
	from, err := utils.ParseInputDate(fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date %q: %w", fromStr, err)
	}
	to := utils.NowIST()
	if toStr != "" {
		if to, err = utils.ParseInputDate(toStr); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date %q: %w", toStr, err)
		}
	}
	return from, to, nil
}

// --- Performance ---

func newPerformanceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "performance",
		Short: "Show daily performance of open-ended equity categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			category, _ := cmd.Flags().GetString("category")

			if category != "" {
				ctx, cancel := a.context(cmd, 1)
				defer cancel()

				cp, err := a.client.GetCategoryPerformance(ctx, category)
				if err != nil {
					return err
				}
				return a.emit(cmd, cp, func() {
					printCategory(cmd.OutOrStdout(), *cp)
				})
			}

			ctx, cancel := a.context(cmd, len(a.client.Categories()))
			defer cancel()

			report, err := a.client.GetOpenEndedEquitySchemePerformance(ctx)
			if err != nil {
				return err
			}
			return a.emit(cmd, report, func() {
				for _, cp := range report {
					printCategory(cmd.OutOrStdout(), cp)
				}
			})
		},
	}
	cmd.Flags().StringP("category", "c", "", "only this category (name or code)")
	return cmd
}

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the reported fund categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cats := a.client.Categories()
			return a.emit(cmd, cats, func() {
				w := cmd.OutOrStdout()
				for _, c := range cats {
					fmt.Fprintf(w, "%-10s %s\n", c.Code, c.Name)
				}
			})
		},
	}
}

// --- Serve Command (API Server) ---

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if host, _ := cmd.Flags().GetString("host"); host != "" {
				a.cfg.API.Host = host
			}
			if port, _ := cmd.Flags().GetInt("port"); port != 0 {
				a.cfg.API.Port = port
			}
			srv := api.NewServer(a.cfg, a.client, a.log, version)
			return srv.ListenAndServe(cmd.Context(), a.cfg.API.Addr())
		},
	}
	cmd.Flags().String("host", "", "listen host (default from config)")
	cmd.Flags().Int("port", 0, "listen port (default from config)")
	return cmd
}

// --- Status Command ---

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and data sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			now := utils.NowIST()

			fmt.Fprintln(w, "═══════════════════════════════════════")
			fmt.Fprintln(w, "  mfindia: Status")
			fmt.Fprintln(w, "═══════════════════════════════════════")
			fmt.Fprintf(w, "  Version:          %s (%s)\n", version, commit)
			fmt.Fprintf(w, "  Time (IST):       %s\n", utils.FormatDateTimeIST(now))
			fmt.Fprintf(w, "  Performance date: %s\n", utils.FormatPerformanceDate(a.client.PerformanceReferenceDate()))
			fmt.Fprintln(w)

			fmt.Fprintln(w, "  Configuration:")
			fmt.Fprintf(w, "    HTTP timeout:       %s\n", a.cfg.HTTP.Timeout())
			if ttl := a.cfg.Cache.TTL(); ttl > 0 {
				fmt.Fprintf(w, "    Directory cache:    %s\n", ttl)
			} else {
				fmt.Fprintln(w, "    Directory cache:    off")
			}
			fmt.Fprintf(w, "    Performance fetch:  %d at a time\n", a.cfg.Performance.ConcurrentFetches)
			fmt.Fprintf(w, "    Log level:          %s (%s)\n", a.cfg.Logging.Level, a.cfg.Logging.Format)
			fmt.Fprintln(w)

			fmt.Fprintln(w, "  Sources:")
			for _, e := range config.CheckEndpoints(a.cfg) {
				fmt.Fprintf(w, "    %-16s %s (%s)\n", e.Name+":", e.URL, e.Source)
			}
			fmt.Fprintln(w, "═══════════════════════════════════════")
			return nil
		},
	}
}
