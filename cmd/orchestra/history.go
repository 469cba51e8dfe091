package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(configPath, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "history <workflow-id>",
		Short: "Show the persisted steps of a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(*configPath, *logLevel)
			if err != nil {
				return err
			}
			defer rt.close()

			entries, err := rt.service.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SEQ\tSTEP\tSTATUS\tITER\tCHECKPOINT\tSUSPENDED\tCREATED")
			for _, e := range entries {
				suspended := ""
				if e.Suspended {
					suspended = "yes"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\t%s\n",
					e.Seq, e.Step, e.Status, e.Iteration, e.CheckpointNumber,
					suspended, e.CreatedAt.Local().Format(time.DateTime))
			}
			return w.Flush()
		},
	}
}
