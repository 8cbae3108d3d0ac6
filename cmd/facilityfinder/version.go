package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func versionCmd(configDir *string) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version and project information",
		Long: `Print the build version together with the finder.json in use and the
size of its route table.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(w, version)
				return
			}

			fmt.Fprintf(w, "facilityfinder %s (%s, built %s, %s)\n", version, commit, date, runtime.Version())

			cfg, err := loadConfig(*configDir)
			if err == nil {
				err = cfg.Validate()
			}
			if err != nil {
				warn(w, "Config: %v", err)
				return
			}
			path := cfg.Path()
			if path == "" {
				path = "none, using defaults"
			}
			fmt.Fprintf(w, "  Config: %s\n", path)
			fmt.Fprintf(w, "  Base:   %s\n", cfg.Base)

			r, err := routerFor(cfg)
			if err != nil {
				warn(w, "Routes: %v", err)
				return
			}
			fmt.Fprintf(w, "  Routes: %d\n", len(r.Routes()))
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version number")

	return cmd
}
