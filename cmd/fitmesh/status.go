package fitmesh

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/msequeira/fitmesh/pkg/a2a"
)

var statusCmd = &cobra.Command{
	Use:   "status <taskId>",
	Short: "Look up a task's current status",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <taskId>",
	Short: "Cancel a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runCancel,
}

var (
	taskTo    string
	taskToken string
)

func init() {
	for _, cmd := range []*cobra.Command{statusCmd, cancelCmd} {
		cmd.Flags().StringVar(&taskTo, "to", "http://localhost:8081", "agent endpoint URL or runtime resource name")
		cmd.Flags().StringVar(&taskToken, "token", "", "bearer token for the agent")
	}
}

func taskClient() *a2a.Client {
	var opts []a2a.ClientOption
	if taskToken != "" {
		opts = append(opts, a2a.WithAuthToken(taskToken))
	}
	return a2a.NewClient("agent", taskTo, opts...)
}

func runStatus(cmd *cobra.Command, args []string) error {
	res, err := taskClient().GetTask(context.Background(), args[0])
	if err != nil {
		return err
	}
	printResult(res)
	return nil
}

func runCancel(cmd *cobra.Command, args []string) error {
	res, err := taskClient().CancelTask(context.Background(), args[0])
	if err != nil {
		return err
	}
	printResult(res)
	return nil
}
