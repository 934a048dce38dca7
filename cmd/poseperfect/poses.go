package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var posesCmd = &cobra.Command{
	Use:   "poses",
	Short: "List the poses in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tFEATURES")
		fmt.Fprintln(w, "----\t--------")
		for _, t := range catalog.Templates() {
			names := make([]string, 0, len(t.Features))
			for n := range t.Features {
				names = append(names, n)
			}
			sort.Strings(names)

			fmt.Fprintf(w, "%s\t", t.Name)
			for i, n := range names {
				if i > 0 {
					fmt.Fprint(w, ", ")
				}
				fmt.Fprintf(w, "%s=%.0f°", n, t.Features[n])
			}
			fmt.Fprintln(w)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(posesCmd)
}
