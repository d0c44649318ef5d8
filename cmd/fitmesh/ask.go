package fitmesh

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msequeira/fitmesh/pkg/a2a"
)

var askCmd = &cobra.Command{
	Use:   "ask <request...>",
	Short: "Send a request to an agent and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var (
	askTo       string
	askToken    string
	askStream   bool
	askDuration int
	askEquip    []string
	askMuscles  []string
	askDate     string
	askLocation string
)

func init() {
	askCmd.Flags().StringVar(&askTo, "to", "http://localhost:8081", "agent endpoint URL or runtime resource name")
	askCmd.Flags().StringVar(&askToken, "token", "", "bearer token for the agent")
	askCmd.Flags().BoolVar(&askStream, "stream", false, "stream progress events instead of waiting for the final result")
	askCmd.Flags().IntVar(&askDuration, "duration", 0, "workout duration in minutes")
	askCmd.Flags().StringSliceVar(&askEquip, "equipment", nil, "available equipment")
	askCmd.Flags().StringSliceVar(&askMuscles, "muscle-groups", nil, "target muscle groups")
	askCmd.Flags().StringVar(&askDate, "date", "", "date to schedule for (YYYY-MM-DD)")
	askCmd.Flags().StringVar(&askLocation, "location", "", "location for equipment checks")
}

func runAsk(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	msg := buildMessage(text)

	var opts []a2a.ClientOption
	if askToken != "" {
		opts = append(opts, a2a.WithAuthToken(askToken))
	}
	client := a2a.NewClient("agent", askTo, opts...)
	ctx := context.Background()

	if askStream {
		return streamAsk(ctx, client, msg)
	}

	res, err := client.Send(ctx, msg)
	if err != nil {
		return err
	}
	printResult(res)
	return nil
}

func buildMessage(text string) a2a.Message {
	parts := []a2a.Part{a2a.TextPart(text)}

	data := map[string]any{}
	constraints := map[string]any{}
	if askDuration > 0 {
		constraints["duration"] = askDuration
	}
	if len(askEquip) > 0 {
		constraints["equipment"] = askEquip
	}
	if len(askMuscles) > 0 {
		constraints["muscleGroups"] = askMuscles
	}
	if len(constraints) > 0 {
		data["goal"] = text
		data["constraints"] = constraints
	}
	if askDate != "" {
		data["date"] = askDate
	}
	if askLocation != "" {
		data["location"] = askLocation
	}
	if len(data) > 0 {
		parts = append(parts, a2a.DataPart(data))
	}
	return a2a.UserMessage(parts...)
}

func streamAsk(ctx context.Context, client *a2a.Client, msg a2a.Message) error {
	events, err := client.SendSubscribe(ctx, msg)
	if err != nil {
		return err
	}
	for ev := range events {
		switch ev.Name {
		case "task-status":
			if m, ok := ev.Data["message"].(string); ok && m != "" {
				fmt.Printf("... %s\n", m)
			}
		case "task-chunk":
			if chunk, ok := ev.Data["chunk"].(string); ok {
				fmt.Print(chunk)
			}
		case "task-result":
			fmt.Println()
			if result, ok := ev.Data["result"].(map[string]any); ok {
				printResultMap(result)
			}
		case "task-error":
			return fmt.Errorf("task failed: %v", ev.Data["error"])
		}
	}
	return nil
}

func printResult(res *a2a.TaskResult) {
	fmt.Printf("task %s: %s\n", res.TaskID, res.State)
	if res.Result == nil {
		return
	}
	for _, part := range res.Result.Parts {
		switch part.Type {
		case "text":
			fmt.Println(part.Text)
		case "data":
			pretty, _ := json.MarshalIndent(part.Data, "", "  ")
			fmt.Println(string(pretty))
		}
	}
}

func printResultMap(result map[string]any) {
	parts, _ := result["parts"].([]any)
	for _, raw := range parts {
		part, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		switch part["type"] {
		case "text":
			if s, ok := part["text"].(string); ok {
				fmt.Println(s)
			}
		case "data":
			pretty, _ := json.MarshalIndent(part["data"], "", "  ")
			fmt.Println(string(pretty))
		}
	}
}
