package main

import (
	"os"

	"github.com/backmassage/framestamp/internal/check"
	"github.com/backmassage/framestamp/internal/config"
	"github.com/backmassage/framestamp/internal/display"
	"github.com/backmassage/framestamp/internal/logging"
	"github.com/spf13/cobra"
)

func newCheckCmd(configPath string) *cobra.Command {
	cfg, loadErr := loadConfig(config.ModeThumbnail, configPath)
	var neg config.NegatedFlags

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report ffmpeg, encoder, and filter availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if loadErr != nil {
				return loadErr
			}
			config.ApplyNegated(&cfg, &neg)

			log, err := logging.NewLogger(&cfg)
			if err != nil {
				return err
			}
			defer log.Close()

			display.PrintBanner(os.Stdout, version)
			(&check.Checker{}).RunCheck(cmd.Context(), log)
			return nil
		},
	}
	config.DefineGlobalFlags(cmd.Flags(), &cfg, &neg)
	return cmd
}
