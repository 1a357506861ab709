package commands

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/Fusion-OS/android-system-security/internal/pkg/config"

	"github.com/spf13/cobra"
)

// SimulateCommandHandler encapsulates the simulate command
type SimulateCommandHandler struct{}

// SimulateCmd loads the configuration, wires the stack and runs the workload
func (commandHandler *SimulateCommandHandler) SimulateCmd(cmd *cobra.Command, _ []string) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("invalid config flag: %w", err)
	}
	opts, err := simulationOptionsFromFlags(cmd)
	if err != nil {
		return err
	}
	linger, err := cmd.Flags().GetBool("linger")
	if err != nil {
		return fmt.Errorf("invalid linger flag: %w", err)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := setupLogger(&cfg.Logger)
	if err != nil {
		return err
	}

	s, err := newStack(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var diagnostics *diagnosticsServer
	if cfg.Diagnostics.Enabled {
		diagnostics = startDiagnostics(&cfg.Diagnostics, s)
		defer func() {
			if err := diagnostics.shutdown(); err != nil {
				log.Error(err)
			}
		}()
	}

	sim, err := newSimulator(s, opts)
	if err != nil {
		return err
	}

	summary, runErr := sim.Run(ctx)

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	if runErr != nil {
		return runErr
	}

	if linger && diagnostics != nil {
		log.Info("Simulation finished, serving diagnostics until interrupted")
		select {
		case <-ctx.Done():
		case err := <-diagnostics.errors:
			return err
		}
	}
	return nil
}

func simulationOptionsFromFlags(cmd *cobra.Command) (SimulationOptions, error) {
	var opts SimulationOptions
	var err error

	if opts.Clients, err = cmd.Flags().GetInt("clients"); err != nil {
		return opts, fmt.Errorf("invalid clients flag: %w", err)
	}
	if opts.OpsPerClient, err = cmd.Flags().GetInt("ops"); err != nil {
		return opts, fmt.Errorf("invalid ops flag: %w", err)
	}
	if opts.PayloadSize, err = cmd.Flags().GetInt("payload"); err != nil {
		return opts, fmt.Errorf("invalid payload flag: %w", err)
	}
	if opts.CrashEvery, err = cmd.Flags().GetInt("crash-every"); err != nil {
		return opts, fmt.Errorf("invalid crash-every flag: %w", err)
	}
	if opts.Seed, err = cmd.Flags().GetUint64("seed"); err != nil {
		return opts, fmt.Errorf("invalid seed flag: %w", err)
	}
	if opts.DrainTimeout, err = cmd.Flags().GetDuration("drain-timeout"); err != nil {
		return opts, fmt.Errorf("invalid drain-timeout flag: %w", err)
	}
	return opts, nil
}

// InitSimulateCommands registers the simulate command
func InitSimulateCommands(rootCmd *cobra.Command) {
	handler := &SimulateCommandHandler{}

	var simulateCmd = &cobra.Command{
		Use:   "simulate",
		Short: "Run concurrent clients against the operation registry",
		RunE:  handler.SimulateCmd,
	}
	simulateCmd.Flags().StringP("config", "", "", "Path to the configuration file (optional)")
	simulateCmd.Flags().IntP("clients", "", 8, "Number of concurrent clients")
	simulateCmd.Flags().IntP("ops", "", 100, "Operations started by each client")
	simulateCmd.Flags().IntP("payload", "", 256, "Bytes fed into each update")
	simulateCmd.Flags().IntP("crash-every", "", 4, "Every n-th client disconnects with live operations (0 disables)")
	simulateCmd.Flags().Uint64P("seed", "", uint64(time.Now().UnixNano()), "Seed of the workload generator")
	simulateCmd.Flags().DurationP("drain-timeout", "", 5*time.Second, "How long to wait for disconnected clients to be reclaimed")
	simulateCmd.Flags().BoolP("linger", "", false, "Keep the diagnostics server running after the simulation")
	rootCmd.AddCommand(simulateCmd)
}

