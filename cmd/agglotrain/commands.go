package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/TrevorS/agglo"
	"github.com/TrevorS/agglo/internal/corpusio"
	"github.com/TrevorS/agglo/promobserver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	outputPath string
	workers    int
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "agglotrain",
		Short:         "Train agglomerative clustering graphs over unit feature vectors",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "agglo.yaml", "run configuration file")

	trainCmd := &cobra.Command{
		Use:   "train",
		Short: "Train a graph and print the per-depth report as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd, opts)
		},
	}
	trainCmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "write the report here instead of stdout")
	trainCmd.Flags().IntVar(&opts.workers, "workers", -1, "override the configured number of workers")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and load the corpus without training",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts)
		},
	}

	root.AddCommand(trainCmd, checkCmd)
	return root
}

type corpus struct {
	cfg     *corpusio.RunConfig
	def     *agglo.FeatureDefinition
	vectors []*agglo.FeatureVector
	dist    agglo.DistanceMeasure
}

func loadCorpus(path string) (*corpus, error) {
	cfg, err := corpusio.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	def, err := corpusio.LoadDefinition(cfg.Definition)
	if err != nil {
		return nil, fmt.Errorf("load definition: %w", err)
	}
	vectors, err := corpusio.LoadVectors(cfg.Vectors, def)
	if err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}
	dist, err := cfg.DistanceMeasure(def, len(vectors))
	if err != nil {
		return nil, err
	}
	return &corpus{cfg: cfg, def: def, vectors: vectors, dist: dist}, nil
}

func newLogger(cfg *corpusio.RunConfig, w io.Writer) *agglo.Logger {
	hopts := &slog.HandlerOptions{Level: cfg.Level()}
	if cfg.LogFormat == "json" {
		return agglo.NewLogger(slog.NewJSONHandler(w, hopts))
	}
	return agglo.NewLogger(slog.NewTextHandler(w, hopts))
}

func runCheck(cmd *cobra.Command, opts *options) error {
	c, err := loadCorpus(opts.configPath)
	if err != nil {
		return err
	}
	skip := c.cfg.HoldoutSkip
	if skip == 0 {
		skip = agglo.DefaultHoldoutSkip
	}
	split, err := agglo.NewCorpus(c.vectors, c.def, skip)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d features, %d vectors (%d held out), distance %s\n",
		c.def.NumFeatures(), split.Len(), len(split.HeldOut()), c.cfg.Distance)
	return nil
}

func runTrain(cmd *cobra.Command, opts *options) error {
	c, err := loadCorpus(opts.configPath)
	if err != nil {
		return err
	}

	cfg := c.cfg.TrainConfig()
	cfg.Distance = c.dist
	cfg.Logger = newLogger(c.cfg, cmd.ErrOrStderr())
	if opts.workers >= 0 {
		cfg.Workers = opts.workers
	}

	var reg *prometheus.Registry
	if c.cfg.MetricsTextfile != "" {
		reg = prometheus.NewRegistry()
		obs, err := promobserver.New(reg)
		if err != nil {
			return err
		}
		cfg.Observer = obs
	}

	res, err := agglo.Train(cmd.Context(), c.vectors, c.def, cfg)
	if err != nil {
		return err
	}

	if reg != nil {
		if err := prometheus.WriteToTextfile(c.cfg.MetricsTextfile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	if opts.outputPath == "" {
		return writeReport(cmd.OutOrStdout(), newReport(res, c.def))
	}
	f, err := os.Create(opts.outputPath)
	if err != nil {
		return err
	}
	if err := writeReport(f, newReport(res, c.def)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeReport(w io.Writer, r report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
