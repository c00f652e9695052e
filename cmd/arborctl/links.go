package main

import (
	"github.com/spf13/cobra"

	"github.com/arborhq/arbor/internal/model"
)

func init() {
	linkCmd := &cobra.Command{
		Use:   "link",
		Short: "Link and request operations",
	}

	getLinkCmd := &cobra.Command{
		Use:   "get CONTAINER_ID PARENT_ID",
		Short: "Link a parent above a container (or file a request)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().RequestGetLink(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	linkCmd.AddCommand(getLinkCmd)

	putLinkCmd := &cobra.Command{
		Use:   "put CONTAINER_ID CHILD_ID",
		Short: "Link a child below a container (or file a request)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().RequestPutLink(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	linkCmd.AddCommand(putLinkCmd)

	unlinkGetCmd := &cobra.Command{
		Use:   "unlink-get CONTAINER_ID PARENT_ID",
		Short: "Remove a parent edge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient().UnlinkGet(cmd.Context(), args[0], args[1])
		},
	}
	linkCmd.AddCommand(unlinkGetCmd)

	unlinkPutCmd := &cobra.Command{
		Use:   "unlink-put CONTAINER_ID CHILD_ID",
		Short: "Remove a child edge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient().UnlinkPut(cmd.Context(), args[0], args[1])
		},
	}
	linkCmd.AddCommand(unlinkPutCmd)

	var linkType string
	madeByCmd := &cobra.Command{
		Use:   "madebyme CONTAINER_ID",
		Short: "List pending requests a container has made",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().RequestsMadeBy(cmd.Context(), args[0], model.LinkType(linkType))
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	madeByCmd.Flags().StringVar(&linkType, "type", "getLink", "Link type (getLink or putLink)")
	linkCmd.AddCommand(madeByCmd)

	var toMeType string
	madeToCmd := &cobra.Command{
		Use:   "madetome",
		Short: "List pending requests targeting your containers",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().RequestsMadeToMe(cmd.Context(), model.LinkType(toMeType))
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	madeToCmd.Flags().StringVar(&toMeType, "type", "getLink", "Link type (getLink or putLink)")
	linkCmd.AddCommand(madeToCmd)

	acceptCmd := &cobra.Command{
		Use:   "accept REQUEST_ID",
		Short: "Approve a pending link request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient().AcceptRequest(cmd.Context(), args[0])
		},
	}
	linkCmd.AddCommand(acceptCmd)

	cancelCmd := &cobra.Command{
		Use:   "cancel REQUEST_ID",
		Short: "Withdraw or decline a pending link request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient().CancelRequest(cmd.Context(), args[0])
		},
	}
	linkCmd.AddCommand(cancelCmd)

	rootCmd.AddCommand(linkCmd)
}
