package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arborhq/arbor/client"
	"github.com/arborhq/arbor/internal/model"
)

func init() {
	containerCmd := &cobra.Command{
		Use:   "containers",
		Short: "Container operations",
	}

	var (
		name      string
		scope     string
		getGate   string
		putGate   string
		searching string
		parents   []string
		children  []string
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a container",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name required")
			}
			c, err := newClient().CreateContainer(cmd.Context(), client.CreateContainerParams{
				Name: name,
				Settings: model.ContainerSettings{
					Scope:     model.Setting(scope),
					GetLink:   model.Setting(getGate),
					PutLink:   model.Setting(putGate),
					Searching: model.Setting(searching),
				},
				Parents:  parents,
				Children: children,
			})
			if err != nil {
				return err
			}
			return printJSON(c)
		},
	}
	createCmd.Flags().StringVarP(&name, "name", "n", "", "Container name (required)")
	createCmd.Flags().StringVar(&scope, "scope", "private", "Scope setting (public or private)")
	createCmd.Flags().StringVar(&getGate, "getlink", "private", "getLink gate (public or private)")
	createCmd.Flags().StringVar(&putGate, "putlink", "private", "putLink gate (public or private)")
	createCmd.Flags().StringVar(&searching, "searching", "private", "Searching setting (public or private)")
	createCmd.Flags().StringSliceVar(&parents, "parent", nil, "Initial parent container IDs")
	createCmd.Flags().StringSliceVar(&children, "child", nil, "Initial child container IDs")
	containerCmd.AddCommand(createCmd)

	getCmd := &cobra.Command{
		Use:   "get CONTAINER_ID",
		Short: "Get a container by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient().GetContainer(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(c)
		},
	}
	containerCmd.AddCommand(getCmd)

	delCmd := &cobra.Command{
		Use:   "delete CONTAINER_ID",
		Short: "Delete a container, its edges and its topics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient().DeleteContainer(cmd.Context(), args[0])
		},
	}
	containerCmd.AddCommand(delCmd)

	var limit int
	searchCmd := &cobra.Command{
		Use:   "search PREFIX",
		Short: "Search your containers by name prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().SearchPrivate(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	searchCmd.Flags().IntVarP(&limit, "limit", "l", 10, "Maximum results")
	containerCmd.AddCommand(searchCmd)

	var pubLimit int
	searchPublicCmd := &cobra.Command{
		Use:   "search-public PREFIX",
		Short: "Search public containers by name prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().SearchPublic(cmd.Context(), args[0], pubLimit)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	searchPublicCmd.Flags().IntVarP(&pubLimit, "limit", "l", 10, "Maximum results")
	containerCmd.AddCommand(searchPublicCmd)

	rootCmd.AddCommand(containerCmd)
}
