package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/c360studio/orchestra/model"
	"github.com/spf13/cobra"
)

// pollInterval is the fallback cadence for checking workflow status when no
// event arrives, so the driver survives missed notifications.
const pollInterval = 2 * time.Second

func newRunCmd(configPath, logLevel *string) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "run [prompt...]",
		Short: "Start a plan-review workflow and drive its checkpoints",
		Long: `Run starts a new workflow from the given prompt (or stdin when no
arguments are given) and walks you through every checkpoint until the
workflow completes, fails, or is cancelled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(*configPath, *logLevel)
			if err != nil {
				return err
			}
			defer rt.close()

			prompt := strings.TrimSpace(strings.Join(args, " "))
			if prompt == "" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read prompt: %w", err)
				}
				prompt = strings.TrimSpace(string(data))
			}
			if prompt == "" {
				return fmt.Errorf("no prompt given")
			}
			if name == "" {
				name = workflowName(prompt)
			}

			rt.watchConfig(cmd.Context())
			return driveWorkflow(cmd, rt, name, prompt)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Workflow name (default: derived from the prompt)")
	return cmd
}

// workflowName derives a short name from the prompt's first line.
func workflowName(prompt string) string {
	line := prompt
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if len(line) > 60 {
		line = line[:57] + "..."
	}
	return line
}

// driveWorkflow runs the interactive loop: create, wait for checkpoints,
// resolve them from stdin, repeat until the workflow is terminal.
func driveWorkflow(cmd *cobra.Command, rt *runtime, name, prompt string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	wf, err := rt.service.Create(ctx, name, prompt)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Workflow %s started: %s\n", wf.ID, name)

	events, cancel := rt.service.Subscribe(wf.ID)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	handled := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if ev.Type == model.EventWorkflowFailed {
				return fmt.Errorf("workflow failed: %s", ev.Error)
			}
		case <-ticker.C:
		}

		detail, err := rt.service.Get(ctx, wf.ID)
		if err != nil {
			return err
		}

		switch detail.Workflow.Status {
		case model.StatusCompleted:
			fmt.Fprintf(out, "\nWorkflow %s completed after %d revision(s).\n\n", wf.ID, detail.Iteration)
			fmt.Fprintln(out, detail.CurrentPlan)
			return nil
		case model.StatusCancelled:
			fmt.Fprintf(out, "\nWorkflow %s cancelled.\n", wf.ID)
			return nil
		case model.StatusFailed:
			return fmt.Errorf("workflow %s failed", wf.ID)
		case model.StatusAwaitingCheckpoint:
			cp := detail.PendingCheckpoint
			if cp == nil || handled[cp.ID] {
				continue
			}
			handled[cp.ID] = true

			res, err := promptResolution(out, reader, *cp)
			if err != nil {
				return err
			}
			if err := rt.service.Resume(ctx, wf.ID, res); err != nil {
				return err
			}
		}
	}
}

// promptResolution renders one checkpoint and reads the user's decision.
func promptResolution(out io.Writer, reader *bufio.Reader, cp model.Checkpoint) (model.Resolution, error) {
	divider := strings.Repeat("-", 72)
	fmt.Fprintf(out, "\n%s\n", divider)
	fmt.Fprintf(out, "Checkpoint %d (%s, iteration %d)\n", cp.Number, cp.StepName, cp.Iteration)
	fmt.Fprintf(out, "%s\n\n", divider)

	for _, ao := range cp.AgentOutputs {
		fmt.Fprintf(out, "--- %s ---\n%s\n\n", ao.AgentName, ao.Output)
	}
	if cp.Instructions != "" {
		fmt.Fprintf(out, "%s\n\n", cp.Instructions)
	}
	if cp.EditableContent != "" {
		fmt.Fprintf(out, "Editable content:\n%s\n\n", cp.EditableContent)
	}

	actions := append([]string{cp.Actions.Primary}, cp.Actions.Secondary...)
	fmt.Fprintf(out, "Actions: %s\n", strings.Join(actions, ", "))

	fmt.Fprintf(out, "Action [%s]: ", cp.Actions.Primary)
	action, err := readLine(reader)
	if err != nil {
		return model.Resolution{}, err
	}
	if action == "" {
		action = cp.Actions.Primary
	}

	res := model.Resolution{Action: action}
	if action == model.ActionCancel {
		return res, nil
	}

	fmt.Fprint(out, "Edit content? [y/N]: ")
	answer, err := readLine(reader)
	if err != nil {
		return model.Resolution{}, err
	}
	if strings.EqualFold(answer, "y") {
		fmt.Fprintln(out, "Enter content, end with a single '.' line:")
		edited, err := readBlock(reader)
		if err != nil {
			return model.Resolution{}, err
		}
		res.EditedContent = edited
	}

	fmt.Fprint(out, "Notes (optional): ")
	notes, err := readLine(reader)
	if err != nil {
		return model.Resolution{}, err
	}
	res.UserNotes = notes
	return res, nil
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readBlock reads lines until a line holding only ".".
func readBlock(reader *bufio.Reader) (string, error) {
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "." {
			break
		}
		if line != "" {
			lines = append(lines, trimmed)
		}
		if err != nil {
			break
		}
	}
	return strings.Join(lines, "\n"), nil
}
