package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/turtacn/Tether/internal/simulator"
	"github.com/turtacn/Tether/pkg/logger"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a local server simulator to attach consoles to",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := boot(cmd)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cmd.Flags().Changed("strict-channel") {
			cfg.Simulator.StrictChannel = strictChannel
		}
		sim := simulator.New(simulator.Options{
			AccessKey:     cfg.Simulator.AccessKey,
			PushInterval:  cfg.Simulator.PushIntervalDuration(),
			StrictChannel: cfg.Simulator.StrictChannel,
		})

		// SIGHUP simulates a server process restart.
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		go func() {
			for range hup {
				logger.Log.Info("Signal: SIGHUP received. Simulating restart.")
				sim.Restart()
			}
		}()

		if err := sim.Run(ctx, cfg.Simulator.Listen); err != nil {
			logger.Log.Error("Simulator fatal error", "err", err)
			os.Exit(1)
		}
	},
}

var strictChannel bool

func init() {
	simulateCmd.Flags().BoolVar(&strictChannel, "strict-channel", false, "reject state channel upgrades with a stale session key")
}

// Personal.AI order the ending
