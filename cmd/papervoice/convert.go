package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papervoice/papervoice/internal/audio"
	"github.com/papervoice/papervoice/internal/convert"
	"github.com/papervoice/papervoice/internal/dispatch"
	"github.com/papervoice/papervoice/internal/extract"
	"github.com/papervoice/papervoice/internal/merge"
	"github.com/papervoice/papervoice/internal/progress"
	"github.com/papervoice/papervoice/internal/synth"
)

var (
	convertVoice   string
	convertModel   string
	convertStyle   string
	convertOutDir  string
	convertNoMerge bool
	convertGapMS   int
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert a document into spoken audio.",
	Long:  "Convert extracts the document text, synthesizes it chunk by chunk, and by default merges multi-part output into a single track.",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := current
		cfg := a.cfg

		if convertVoice != "" {
			cfg.Synthesis.Voice = convertVoice
		}
		if convertModel != "" {
			cfg.Synthesis.Model = convertModel
		}
		if convertStyle != "" {
			cfg.Synthesis.StyleHint = convertStyle
		}
		if convertOutDir != "" {
			cfg.Output.Dir = convertOutDir
		}
		if cmd.Flags().Changed("gap-ms") {
			cfg.Merge.GapMS = convertGapMS
		}

		engine, err := synth.New(cfg.Synthesis)
		if err != nil {
			return err
		}
		codec, err := audio.ForFormat(cfg.Output.Format, audio.Options{
			FFmpegBin:  cfg.Output.FFmpegBin,
			SampleRate: cfg.Synthesis.SampleRate,
			Channels:   cfg.Synthesis.Channels,
		})
		if err != nil {
			return err
		}

		reporter := progress.NewTerminal(nil, !quiet)
		router := convert.NewRouter(a.logger, a.runs)
		router.Register(".pdf", convert.NewTextPipeline(
			extract.NewPDF(),
			dispatch.New(engine, a.logger, reporter),
			merge.New(codec, a.logger, reporter),
			a.logger,
		))

		arts, err := router.Convert(cmd.Context(), convert.Request{
			Path:          args[0],
			Voice:         cfg.Synthesis.Voice,
			Model:         cfg.Synthesis.Model,
			StyleHint:     cfg.Synthesis.StyleHint,
			OutputDir:     cfg.Output.Dir,
			Format:        cfg.Output.Format,
			MaxChunkChars: cfg.Synthesis.MaxChunkChars,
			Gap:           time.Duration(cfg.Merge.GapMS) * time.Millisecond,
			Merge:         !convertNoMerge,
		})
		if err != nil {
			return err
		}
		for _, art := range arts {
			fmt.Printf("Saved audio to: %s\n", art.Path)
		}
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertVoice, "voice", "", "voice name (default from config)")
	convertCmd.Flags().StringVar(&convertModel, "model", "", "synthesis model (default from config)")
	convertCmd.Flags().StringVar(&convertStyle, "style", "", "delivery style hint")
	convertCmd.Flags().StringVarP(&convertOutDir, "out", "o", "", "output directory (default from config)")
	convertCmd.Flags().BoolVar(&convertNoMerge, "no-merge", false, "keep per-chunk part files instead of merging")
	convertCmd.Flags().IntVar(&convertGapMS, "gap-ms", 300, "silence between merged parts, in milliseconds")
	rootCmd.AddCommand(convertCmd)
}
