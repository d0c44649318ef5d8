package fitmesh

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msequeira/fitmesh/pkg/a2a"
)

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Fetch and print an agent's card",
	RunE:  runCard,
}

var cardTo string

func init() {
	cardCmd.Flags().StringVar(&cardTo, "to", "http://localhost:8081", "agent endpoint URL")
}

func runCard(cmd *cobra.Command, args []string) error {
	client := a2a.NewClient("agent", cardTo)
	card, err := client.AgentCard(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("%s v%s\n%s\n%s\n", card.Name, card.Version, card.Description, card.URL)
	fmt.Printf("streaming: %t, push notifications: %t\n",
		card.Capabilities.Streaming, card.Capabilities.PushNotifications)
	for _, skill := range card.Skills {
		fmt.Printf("  - %s (%s): %s\n", skill.Name, skill.ID, skill.Description)
	}
	return nil
}
