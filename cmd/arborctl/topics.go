package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/arborhq/arbor/client"
	"github.com/arborhq/arbor/internal/model"
)

func init() {
	topicCmd := &cobra.Command{
		Use:   "topics",
		Short: "Topic operations",
	}

	var origin, name, content string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a topic under a container",
		RunE: func(cmd *cobra.Command, args []string) error {
			if origin == "" || name == "" {
				return fmt.Errorf("--origin and --name required")
			}
			t, err := newClient().CreateTopic(cmd.Context(), origin, name, content)
			if err != nil {
				return err
			}
			return printJSON(t)
		},
	}
	createCmd.Flags().StringVarP(&origin, "origin", "o", "", "Origin container ID (required)")
	createCmd.Flags().StringVarP(&name, "name", "n", "", "Topic name (required)")
	createCmd.Flags().StringVarP(&content, "content", "c", "", "Topic content")
	topicCmd.AddCommand(createCmd)

	delCmd := &cobra.Command{
		Use:   "delete TOPIC_ID",
		Short: "Delete a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient().DeleteTopic(cmd.Context(), args[0])
		},
	}
	topicCmd.AddCommand(delCmd)

	var (
		count int
		since string
		until string
		avoid []string
	)
	searchCmd := &cobra.Command{
		Use:   "search CONTAINER_ID",
		Short: "Collect topics walking up the container ancestry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse(time.RFC3339, since)
			if err != nil {
				return fmt.Errorf("invalid --since: %w", err)
			}
			end := time.Now().UTC()
			if until != "" {
				end, err = time.Parse(time.RFC3339, until)
				if err != nil {
					return fmt.Errorf("invalid --until: %w", err)
				}
			}
			topics, err := newClient().SearchTopics(cmd.Context(), client.TopicSearchParams{
				ContainerID:     args[0],
				NumberOfTopics:  count,
				TimeRange:       model.TimeRange{Start: start, End: end},
				AvoidContainers: avoid,
			})
			if err != nil {
				return err
			}
			return printJSON(topics)
		},
	}
	searchCmd.Flags().IntVarP(&count, "count", "k", 10, "Maximum number of topics")
	searchCmd.Flags().StringVar(&since, "since", "", "Window start, RFC3339 (required)")
	searchCmd.Flags().StringVar(&until, "until", "", "Window end, RFC3339 (defaults to now)")
	searchCmd.Flags().StringSliceVar(&avoid, "avoid", nil, "Container IDs to skip during the walk")
	_ = searchCmd.MarkFlagRequired("since")
	topicCmd.AddCommand(searchCmd)

	rootCmd.AddCommand(topicCmd)
}
