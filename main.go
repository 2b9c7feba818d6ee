package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/rm-hull/pixelbench/cmd"
	"github.com/rm-hull/pixelbench/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := newRootCmd(&cfg).Execute(); err != nil {
		log.Fatal(err)
	}
}

// newRootCmd builds the command tree. Errors are left to the caller to
// report, so each failure is printed once.
func newRootCmd(cfg *config.Config) *cobra.Command {
	var port int
	var debug bool
	var every time.Duration

	rootCmd := &cobra.Command{
		Use:           "pixelbench",
		Long:          `Sequential vs parallel Gaussian blur and RGB difference benchmark`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, _ []string) error {
			return cmd.Benchmark(*cfg, c.OutOrStdout())
		},
	}
	bindConfigFlags(rootCmd.PersistentFlags(), cfg)

	apiServerCmd := &cobra.Command{
		Use:   "serve [--port <port>] [--every <duration>] [--debug]",
		Short: "Benchmark periodically and serve the results over HTTP",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			cmd.ApiServer(*cfg, port, every, debug)
		},
	}

	apiServerCmd.Flags().IntVar(&port, "port", 8080, "Port to run HTTP server on")
	apiServerCmd.Flags().DurationVar(&every, "every", time.Hour, "Interval between benchmark runs")
	apiServerCmd.Flags().BoolVar(&debug, "debug", false, "Enable debugging (pprof) - WARNING: do not enable in production")

	rootCmd.AddCommand(apiServerCmd)
	return rootCmd
}

// bindConfigFlags exposes every setting as a flag whose default is the value
// already taken from the environment, so flags win over PIXELBENCH_* vars.
func bindConfigFlags(flags *pflag.FlagSet, cfg *config.Config) {
	flags.StringVar(&cfg.BlurInput, "blur-input", cfg.BlurInput, "Greyscale image to blur")
	flags.StringVar(&cfg.BlurOutput, "blur-output", cfg.BlurOutput, "Where to write the blurred image")
	flags.StringVar(&cfg.DiffInputA, "diff-input-a", cfg.DiffInputA, "First RGB image to compare")
	flags.StringVar(&cfg.DiffInputB, "diff-input-b", cfg.DiffInputB, "Second RGB image to compare")
	flags.StringVar(&cfg.DiffOutput, "diff-output", cfg.DiffOutput, "Where to write the difference mask")
	flags.IntVar(&cfg.Radius, "radius", cfg.Radius, "Gaussian kernel radius (kernel size is 2r+1)")
	flags.Float64Var(&cfg.Sigma, "sigma", cfg.Sigma, "Gaussian standard deviation")
	flags.IntVar(&cfg.TileSize, "tile-size", cfg.TileSize, "Side of the square tiles handed to workers")
	flags.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of workers (0 = one per available CPU)")
	flags.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Folder for results files")
	flags.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address to publish reports to (empty to disable)")
}
