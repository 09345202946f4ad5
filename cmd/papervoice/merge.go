package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papervoice/papervoice/internal/audio"
	"github.com/papervoice/papervoice/internal/merge"
	"github.com/papervoice/papervoice/internal/progress"
)

var mergeGapMS int

var mergeCmd = &cobra.Command{
	Use:   "merge <out> <in>...",
	Short: "Merge audio part files into a single track.",
	Long:  "Merge joins part files in their numbered order, inserting silence between adjacent parts. Inputs without a part number follow the numbered ones in the order given. The input files are left in place.",
	Args:  minimumArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := current
		cfg := a.cfg

		out := args[0]
		format := strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")
		codec, err := audio.ForFormat(format, audio.Options{
			FFmpegBin:  cfg.Output.FFmpegBin,
			SampleRate: cfg.Synthesis.SampleRate,
			Channels:   cfg.Synthesis.Channels,
		})
		if err != nil {
			return err
		}

		gap := time.Duration(cfg.Merge.GapMS) * time.Millisecond
		if cmd.Flags().Changed("gap-ms") {
			gap = time.Duration(mergeGapMS) * time.Millisecond
		}

		merger := merge.New(codec, a.logger, progress.NewTerminal(nil, !quiet))
		art, err := merger.Merge(cmd.Context(), args[1:], out, gap)
		if err != nil {
			return err
		}
		fmt.Printf("Saved audio to: %s\n", art.Path)
		return nil
	},
}

func init() {
	mergeCmd.Flags().IntVar(&mergeGapMS, "gap-ms", 300, "silence between merged parts, in milliseconds")
	rootCmd.AddCommand(mergeCmd)
}
