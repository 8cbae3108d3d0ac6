package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/facilityfinder/internal/app"
	"github.com/vango-dev/facilityfinder/internal/config"
	"github.com/vango-dev/facilityfinder/internal/errors"
)

func initCmd() *cobra.Command {
	var (
		name  string
		base  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create finder.json and the asset directory",
		Long: `Create a finder.json with default settings and an assets directory holding
the about page template.

Examples:
  facilityfinder init
  facilityfinder init ./site --base /finder`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			if config.Exists(dir) && !force {
				return errors.New(errors.CodeBadArgument).
					WithDetail(config.ConfigFileName + " already exists in " + dir).
					WithSuggestion("Use --force to overwrite it")
			}

			cfg := config.New()
			if name != "" {
				cfg.Name = name
			}
			cfg.Base = base
			if err := cfg.Validate(); err != nil {
				return err
			}

			assetsDir := filepath.Join(dir, cfg.Assets.Dir)
			if err := os.MkdirAll(assetsDir, 0o755); err != nil {
				return errors.New(errors.CodeAssetSource).Wrap(err)
			}
			about := filepath.Join(assetsDir, app.AboutTemplate)
			if _, err := os.Stat(about); os.IsNotExist(err) || force {
				if err := os.WriteFile(about, app.DefaultAbout, 0o644); err != nil {
					return errors.New(errors.CodeAssetSource).Wrap(err)
				}
			}

			path := filepath.Join(dir, config.ConfigFileName)
			if err := cfg.SaveTo(path); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			success(out, "Created %s", path)
			info(out, "Assets: %s", assetsDir)
			info(out, "Run: facilityfinder serve -c %s", dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Site name shown in page titles")
	cmd.Flags().StringVar(&base, "base", "", "Path prefix to serve under (e.g. /finder)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing files")

	return cmd
}
