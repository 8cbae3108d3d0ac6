package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/facilityfinder/internal/errors"
)

func explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain [code]",
		Short: "Describe an error code",
		Long: `Describe an error code reported by facilityfinder, or list every code.

Examples:
  facilityfinder explain
  facilityfinder explain R102`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return errors.GetAllCodes(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				return listCodes(out)
			}

			code := strings.ToUpper(args[0])
			tmpl, ok := errors.GetTemplate(code)
			if !ok {
				return errors.New(errors.CodeBadArgument).
					WithDetail("Unknown error code " + args[0]).
					WithSuggestion("Run facilityfinder explain to list every code")
			}
			explainCode(out, code, tmpl)
			return nil
		},
	}
}

func listCodes(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tCATEGORY\tMESSAGE")
	for _, code := range errors.GetAllCodes() {
		tmpl, _ := errors.GetTemplate(code)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", code, tmpl.Category, tmpl.Message)
	}
	return tw.Flush()
}

func explainCode(w io.Writer, code string, tmpl errors.ErrorTemplate) {
	fmt.Fprintf(w, "%s: %s\n", code, tmpl.Message)
	fmt.Fprintf(w, "  Category: %s\n", tmpl.Category)
	if tmpl.Detail != "" {
		fmt.Fprintf(w, "\n  %s\n", tmpl.Detail)
	}
	if tmpl.Suggestion != "" {
		fmt.Fprintf(w, "\n  Hint: %s\n", tmpl.Suggestion)
	}
	if tmpl.DocURL != "" {
		fmt.Fprintf(w, "\n  Learn more: %s\n", tmpl.DocURL)
	}
}
