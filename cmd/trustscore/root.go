package main

import (
	"context"
	"fmt"
	"io"

	"github.com/okian/trustscore/internal/config"
	"github.com/okian/trustscore/pkg/logger"
	"github.com/spf13/cobra"
)

// cli carries process streams and the loaded configuration to subcommands.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "trustscore",
		Short:         "Score ML model repositories for reuse trustworthiness",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `trustscore computes license, ramp-up, bus factor, code quality, dataset,
performance and size sub-scores for model repositories and combines them into
a weighted net score, one NDJSON record per repository.

Configuration comes from defaults, an optional YAML file named by
TRUSTSCORE_CONFIG and TRUSTSCORE_* environment variables.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.Context())
		},
	}
	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)
	root.AddCommand(newScoreCmd(c), newServeCmd(c), newVersionCmd())
	return root
}

// setup loads configuration and initializes logging. Logs never go to
// stdout, which carries the score stream.
func (c *cli) setup(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.WithWriter(c.stderr), logger.WithFile(cfg.LogFile)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}
	root := newRootCmd(c)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	_ = logger.Sync()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "trustscore:", err)
		return 1
	}
	return 0
}
