package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List registered providers by priority",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		regs := e.Router.Registry().All()
		sort.Slice(regs, func(i, j int) bool {
			return regs[i].Priority > regs[j].Priority
		})

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tPRIORITY\tCLASSES")
		for _, reg := range regs {
			classes := "any"
			if cs := reg.Provider.Classes(); len(cs) > 0 {
				classes = ""
				for i, c := range cs {
					if i > 0 {
						classes += ", "
					}
					classes += string(c)
				}
			}
			fmt.Fprintf(w, "%s\t%d\t%s\n", reg.Provider.Name(), reg.Priority, classes)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
