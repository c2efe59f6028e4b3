package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MeKo-Tech/interop/internal/coordinator"
	"github.com/MeKo-Tech/interop/internal/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// coordinatorCmd is the peer that releases the client at begin and end.
var coordinatorCmd = &cobra.Command{
	Use:   "coordinator",
	Short: "Coordinate a client's begin and end with setup and teardown scripts",
	Long: `Bind the server socket and wait for a client.

When the client reaches begin, the pre scripts run in order and then the
client is released. When it reaches end, the post scripts run and the client
is released again. A failing script is logged and does not stop the run.

Example:
  interop coordinator --client /tmp/client --server /tmp/server \
    --pre "tc qdisc add dev lo root netem delay 10ms" \
    --post "tc qdisc del dev lo root"`,
	SilenceUsage: true,
	RunE:         runCoordinator,
}

func init() {
	rootCmd.AddCommand(coordinatorCmd)

	coordinatorCmd.Flags().StringP("client", "c", "", "path to the unix socket of the client")
	coordinatorCmd.Flags().StringP("server", "s", "", "path to the unix socket of the server")
	coordinatorCmd.Flags().StringArrayP("pre", "p", nil, "script to run before releasing the client at begin (repeatable)")
	coordinatorCmd.Flags().StringArrayP("post", "P", nil, "script to run before releasing the client at end (repeatable)")

	_ = viper.BindPFlag("rendezvous.client_socket", coordinatorCmd.Flags().Lookup("client"))
	_ = viper.BindPFlag("rendezvous.server_socket", coordinatorCmd.Flags().Lookup("server"))
	_ = viper.BindPFlag("coordinator.pre_scripts", coordinatorCmd.Flags().Lookup("pre"))
	_ = viper.BindPFlag("coordinator.post_scripts", coordinatorCmd.Flags().Lookup("post"))
}

func runCoordinator(cmd *cobra.Command, _ []string) error {
	cfg := GetConfig()
	rec := metrics.NewRecorder()

	coord, err := coordinator.New(cfg.ToCoordinatorConfig(),
		coordinator.WithLogger(slog.Default()),
		coordinator.WithMetrics(rec),
		coordinator.WithRunner(&coordinator.ShellRunner{
			Shell:  cfg.Coordinator.Shell,
			Stdout: cmd.OutOrStdout(),
			Stderr: cmd.ErrOrStderr(),
		}))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := coord.Run(ctx)
	if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil && runErr == nil {
		runErr = fmt.Errorf("write metrics: %w", err)
	}
	return runErr
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
