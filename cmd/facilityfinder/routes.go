package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/facilityfinder/internal/config"
	"github.com/vango-dev/facilityfinder/internal/errors"
	"github.com/vango-dev/facilityfinder/pkg/router"
)

// tableRouter builds a router for inspecting the route table. It never
// loads a view, so no asset source is configured.
func tableRouter(configDir string) (*router.Router, error) {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return routerFor(cfg)
}

func routerFor(cfg *config.Config) (*router.Router, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newRouter(cfg, newViews(cfg, nil, nil), logger, nil, nil)
}

func routesCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the route table",
		Long: `List every route in registration order.

LAZY marks routes whose view is loaded on first navigation. PROPS marks
routes that pass their path parameters to the view.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := tableRouter(*configDir)
			if err != nil {
				return err
			}
			return printRoutes(cmd.OutOrStdout(), r)
		},
	}
}

func printRoutes(w io.Writer, r *router.Router) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPATH\tLAZY\tPROPS\tTITLE")
	for _, route := range r.Routes() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			route.Name(), r.Href(route.Path()), yesNo(route.Lazy()), yesNo(route.ForwardsParams()), route.Title())
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// resolution is the JSON form of a resolved path.
type resolution struct {
	Route    string            `json:"route,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
	Path     string            `json:"path"`
	FullPath string            `json:"fullPath"`
	Query    url.Values        `json:"query,omitempty"`
	Hash     string            `json:"hash,omitempty"`
	NotFound bool              `json:"notFound"`
}

func resolveCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>",
		Short: "Show which route a path matches",
		Long: `Resolve an app path against the route table and print the result as JSON.

The command exits non-zero when no route matches.

Examples:
  facilityfinder resolve /facility/42
  facilityfinder resolve '/findfacility_event?distance=5#map'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := tableRouter(*configDir)
			if err != nil {
				return err
			}
			s := r.Resolve(args[0])

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(resolution{
				Route:    s.RouteName(),
				Params:   s.Params,
				Path:     s.Path,
				FullPath: s.FullPath,
				Query:    s.Query,
				Hash:     s.Hash,
				NotFound: s.NotFound(),
			}); err != nil {
				return err
			}
			if s.NotFound() {
				return errors.New(errors.CodeUnknownRoute).WithDetail("No route matches " + args[0])
			}
			return nil
		},
	}
}

func urlCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "url <route> [param=value...]",
		Short: "Build the URL of a named route",
		Long: `Build the URL of a named route from its parameters.

Examples:
  facilityfinder url FacilityDetail id=42
  facilityfinder url about`,
		Args: cobra.MinimumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			r, err := tableRouter(*configDir)
			if err != nil {
				return nil, cobra.ShellCompDirectiveError
			}
			var names []string
			for _, route := range r.Routes() {
				names = append(names, route.Name())
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := tableRouter(*configDir)
			if err != nil {
				return err
			}
			params := make(map[string]string, len(args)-1)
			for _, arg := range args[1:] {
				name, value, ok := strings.Cut(arg, "=")
				if !ok || name == "" {
					return errors.New(errors.CodeBadArgument).
						WithDetail("Expected param=value, got " + arg).
						WithExample("facilityfinder url " + args[0] + " id=42")
				}
				params[name] = value
			}

			path, err := r.URL(args[0], params)
			if err != nil {
				if stderrors.Is(err, router.ErrUnknownRoute) {
					return errors.New(errors.CodeUnknownRoute).Wrap(err)
				}
				return errors.New(errors.CodeBadArgument).Wrap(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), r.Href(path))
			return nil
		},
	}
}
