package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/image-insight/internal/config"
	"github.com/menta2k/image-insight/pkg/processing"
)

var probeCmd = &cobra.Command{
	Use:   "probe <file|url>",
	Short: "Ask the vision model for a free-text description",
	Long: `Sends one image to the configured vision backend and prints its raw
answer. Useful to check that the backend and model are reachable.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Backend.Kind == config.BackendNone {
			return errors.New("probe needs a vision backend, set --backend")
		}
		log, err := newLog()
		if err != nil {
			return err
		}
		defer log.Close()

		insight, err := newInsight(cfg, log)
		if err != nil {
			return err
		}
		loaded, err := processing.NewProcessor().Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		text, err := insight.Describe(cmd.Context(), loaded.Image)
		if err != nil {
			return fmt.Errorf("probe failed: %w", err)
		}
		cmd.Println(text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
