package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/avvvet/bingobongo/internal/bingo"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "cardgen",
		Short:        "Generate 90-ball bingo card catalogs",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newGenerateCmd())
	return rootCmd
}

type generateOptions struct {
	count  int
	out    string
	seed   uint64
	format string
}

func newGenerateCmd() *cobra.Command {
	opts := generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a catalog of CARD1..CARDn",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}
	cmd.Flags().IntVar(&opts.count, "count", 100, "number of cards")
	cmd.Flags().StringVar(&opts.out, "out", "-", "output file, - for stdout")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "seed for a reproducible catalog, 0 for random")
	cmd.Flags().StringVar(&opts.format, "format", string(bingo.FormatJSON), "json or js (window.cards = ...)")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts generateOptions) error {
	if opts.count <= 0 {
		return fmt.Errorf("--count must be positive, got %d", opts.count)
	}
	format := bingo.CatalogFormat(opts.format)
	if format != bingo.FormatJSON && format != bingo.FormatJS {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	var rng bingo.Rand = bingo.DefaultRand
	if opts.seed != 0 {
		rng = rand.New(rand.NewPCG(opts.seed, opts.seed))
	}
	cards, err := bingo.NewGenerator(rng).Generate(opts.count)
	if err != nil {
		return fmt.Errorf("generate cards: %w", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if opts.out != "-" && opts.out != "" {
		if err := os.MkdirAll(filepath.Dir(opts.out), 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := bingo.WriteCatalog(w, cards, format); err != nil {
		return err
	}
	if opts.out != "-" && opts.out != "" {
		log.Infof("wrote %d cards to %s", len(cards), opts.out)
	}
	return nil
}
