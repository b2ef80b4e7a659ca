package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/David-Botos/mart-export/pkg/config"
	"github.com/David-Botos/mart-export/pkg/taxonomy"
)

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Print the category taxonomy in effect",
		Long:  "Prints every category and its static tables, using EXPORT_RULES_FILE when set and the built-in taxonomy otherwise.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := config.LoadOptionalRules(config.RulesPath())
			if err != nil {
				return err
			}
			printTaxonomy(cmd.OutOrStdout(), rules.Taxonomy(taxonomy.Default()))
			return nil
		},
	}
}

func printTaxonomy(w io.Writer, tax taxonomy.Taxonomy) {
	for _, category := range tax.Categories() {
		tables, _ := tax.Tables(category)
		switch {
		case category == taxonomy.ObservationsCategory:
			fmt.Fprintf(w, "%s: tables with an obs_datetime column\n", category)
		case len(tables) == 0:
			fmt.Fprintf(w, "%s: (none)\n", category)
		default:
			fmt.Fprintf(w, "%s: %s\n", category, strings.Join(tables, ", "))
		}
	}
}
