package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papervoice/papervoice/internal/artifact"
	"github.com/papervoice/papervoice/internal/audio"
	"github.com/papervoice/papervoice/internal/dispatch"
	"github.com/papervoice/papervoice/internal/merge"
	"github.com/papervoice/papervoice/internal/progress"
	"github.com/papervoice/papervoice/internal/segment"
	"github.com/papervoice/papervoice/internal/synth"
)

var (
	sayOutFile string
	sayVoice   string
)

var sayCmd = &cobra.Command{
	Use:   "say <text>...",
	Short: "Speak the given text to an audio file.",
	Long:  "Say synthesizes the given text directly, without a source document. Text longer than the chunk limit is split, synthesized per chunk, and merged.",
	Args:  minimumArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := current
		cfg := a.cfg

		if sayVoice != "" {
			cfg.Synthesis.Voice = sayVoice
		}

		dir := cfg.Output.Dir
		format := cfg.Output.Format
		stem := "speech_" + time.Now().UTC().Format("20060102_150405")
		if sayOutFile != "" {
			dir = filepath.Dir(sayOutFile)
			stem = artifact.Stem(sayOutFile)
			if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(sayOutFile)), "."); ext != "" {
				format = ext
			}
		}

		engine, err := synth.New(cfg.Synthesis)
		if err != nil {
			return err
		}

		text := strings.Join(args, " ")
		chunks := segment.Split(text, cfg.Synthesis.MaxChunkChars)

		reporter := progress.NewTerminal(nil, !quiet)
		arts, err := dispatch.New(engine, a.logger, reporter).Dispatch(cmd.Context(), chunks, stem, dir, dispatch.Options{
			Voice:     cfg.Synthesis.Voice,
			Model:     cfg.Synthesis.Model,
			StyleHint: cfg.Synthesis.StyleHint,
			Format:    format,
		})
		if err != nil {
			return err
		}

		if len(arts) > 1 {
			codec, err := audio.ForFormat(format, audio.Options{
				FFmpegBin:  cfg.Output.FFmpegBin,
				SampleRate: cfg.Synthesis.SampleRate,
				Channels:   cfg.Synthesis.Channels,
			})
			if err != nil {
				return err
			}
			inputs := make([]string, len(arts))
			for i, art := range arts {
				inputs[i] = art.Path
			}
			out := artifact.SingleName(dir, stem, format)
			art, err := merge.New(codec, a.logger, reporter).Merge(cmd.Context(), inputs, out, time.Duration(cfg.Merge.GapMS)*time.Millisecond)
			if err != nil {
				return err
			}
			arts = []artifact.Artifact{art}
		}

		for _, art := range arts {
			fmt.Printf("Saved audio to: %s\n", art.Path)
		}
		return nil
	},
}

func init() {
	sayCmd.Flags().StringVarP(&sayOutFile, "out-file", "o", "", "output file path (default speech_<timestamp> in the output dir)")
	sayCmd.Flags().StringVar(&sayVoice, "voice", "", "voice name (default from config)")
	rootCmd.AddCommand(sayCmd)
}
