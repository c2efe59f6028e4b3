package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/interop/internal/metrics"
	"github.com/MeKo-Tech/interop/internal/rendezvous"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// clientCmd is the measured side of a run: initialize, begin, end.
var clientCmd = &cobra.Command{
	Use:   "client [-s <client>,<server>] [-f <file>] [--] [args...]",
	Short: "Run a timed begin/end cycle against a coordinator",
	Long: `Run one begin/end measurement cycle.

With -s the client binds <client>, connects to <server> and holds at begin
and at end until the coordinator answers. With -f the start and end times are
written to <file> as {"start": <ns>, "end": <ns>}.

Options default to rendezvous.client_socket, rendezvous.server_socket and
output.file from the configuration. Global flags go before "client".

Prints "Init done", "Running" and "Done" as it progresses.`,
	DisableFlagParsing: true,
	SilenceUsage:       true,
	RunE:               runClient,
}

func init() {
	rootCmd.AddCommand(clientCmd)
}

func runClient(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	out := cmd.OutOrStdout()
	rec := metrics.NewRecorder()

	timer, n, err := rendezvous.InitializeWithDefaults(args, cfg.ToTimerConfig(),
		rendezvous.WithLogger(slog.Default()),
		rendezvous.WithMetrics(rec))
	if errors.Is(err, pflag.ErrHelp) {
		_, _ = fmt.Fprintf(out, "%s\n\nUsage:\n  %s\n\nOptions:\n%s", cmd.Long, cmd.UseLine(), rendezvous.NewFlagSet().FlagUsages())
		return nil
	}
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer func() {
		if cerr := timer.Close(); cerr != nil {
			slog.Warn("closing rendezvous timer", "error", cerr)
		}
	}()

	if rest := args[n:]; len(rest) > 0 {
		slog.Debug("unprocessed client arguments", "args", rest)
	}
	_, _ = fmt.Fprintln(out, "Init done")

	if err := timer.Begin(); err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	_, _ = fmt.Fprintln(out, "Running")

	if cfg.Client.WorkDuration > 0 {
		time.Sleep(cfg.Client.WorkDuration)
	}

	if err := timer.End(); err != nil {
		return fmt.Errorf("end: %w", err)
	}
	_, _ = fmt.Fprintln(out, "Done")

	slog.Info("measurement recorded",
		"start_ns", timer.StartNanos(),
		"end_ns", timer.EndNanos(),
		"interval", timer.Record().Interval())

	if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
