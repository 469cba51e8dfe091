package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newListCmd(configPath, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(*configPath, *logLevel)
			if err != nil {
				return err
			}
			defer rt.close()

			workflows, err := rt.service.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(workflows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No workflows yet.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tCREATED\tNAME")
			for _, wf := range workflows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					wf.ID, wf.Status, wf.CreatedAt.Local().Format(time.DateTime), wf.Name)
			}
			return w.Flush()
		},
	}
}
