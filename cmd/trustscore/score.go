package main

import (
	"fmt"
	"io"
	"os"

	service "github.com/okian/trustscore/internal/app"
	"github.com/okian/trustscore/pkg/logger"
	"github.com/spf13/cobra"
)

type scoreFlags struct {
	workers int
	ordered bool
	output  string
	format  string
}

func newScoreCmd(c *cli) *cobra.Command {
	f := &scoreFlags{}
	cmd := &cobra.Command{
		Use:   "score <file|->",
		Short: "Score every repository in an NDJSON or URL file",
		Long: `Reads repository descriptors (NDJSON) or URL lines of the form
code_url,dataset_url,model_url and writes one NDJSON score record per
repository. Use - to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, c, f, args[0])
		},
	}
	fl := cmd.Flags()
	fl.IntVarP(&f.workers, "workers", "w", 0, "number of scoring workers (default from config)")
	fl.BoolVar(&f.ordered, "ordered", false, "emit records in input order")
	fl.StringVarP(&f.output, "output", "o", "", "write records to this file instead of stdout")
	fl.StringVar(&f.format, "input-format", service.FormatAuto, "input format: auto, ndjson or urls")
	return cmd
}

func runScore(cmd *cobra.Command, c *cli, f *scoreFlags, path string) error {
	ctx := cmd.Context()
	if cmd.Flags().Changed("workers") {
		c.cfg.WorkerCount = f.workers
	}
	if cmd.Flags().Changed("ordered") {
		c.cfg.OrderedOutput = f.ordered
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	svc, err := service.New(ctx, c.cfg)
	if err != nil {
		return err
	}

	var in io.Reader = c.stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer func() { _ = file.Close() }()
		in = file
	}

	var out io.Writer = c.stdout
	if f.output != "" && f.output != "-" {
		file, err := os.Create(f.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() { _ = file.Close() }()
		out = file
	}

	sum, err := svc.Run(ctx, in, f.format, out)
	if err != nil {
		return err
	}
	logger.Get().Debug(ctx, "score finished",
		logger.String("run_id", sum.RunID),
		logger.Int("records", sum.Records),
	)
	return nil
}
