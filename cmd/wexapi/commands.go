package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/wexample/go-api/pkg/client"
	"github.com/wexample/go-api/pkg/repository"
)

// ── list ─────────────────────────────────────────────────────────────────────

func (a *app) listCmd() *cobra.Command {
	var opts repository.ListOptions

	cmd := &cobra.Command{
		Use:   "list <entity>",
		Short: "List one page of entities",
		Example: `  wexapi list widget --page 1 --length 10
  wexapi list widget --query color=blue --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ec, err := a.entitiesClient(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			repo, err := ec.Repository(args[0])
			if err != nil {
				return err
			}
			items, err := repo.FetchList(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("list %s: %w", repo.EntityName(), err)
			}
			return a.printList(repo.EntityName(), items)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.Page, "page", 0, "zero-based page number")
	f.IntVar(&opts.Length, "length", 0, "page size (server default when 0)")
	f.StringVar(&opts.Endpoint, "endpoint", repository.DefaultListEndpoint, "list endpoint suffix")
	f.StringToStringVar(&opts.Query, "query", nil, "extra query parameters (key=value)")
	return cmd
}

// ── show ─────────────────────────────────────────────────────────────────────

func (a *app) showCmd() *cobra.Command {
	var endpoint string

	cmd := &cobra.Command{
		Use:   "show <entity> <id>",
		Short: "Show a single entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ec, err := a.entitiesClient(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			repo, err := ec.Repository(args[0])
			if err != nil {
				return err
			}
			e, err := repo.Fetch(cmd.Context(), args[1], endpoint)
			if err != nil {
				return fmt.Errorf("show %s %q: %w", repo.EntityName(), args[1], err)
			}
			return a.printOne(e)
		},
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", repository.DefaultShowEndpoint, "show endpoint suffix")
	return cmd
}

// ── entities ─────────────────────────────────────────────────────────────────

func (a *app) entitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List the registered entity names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			descs := a.descriptors()
			names := make([]string, len(descs))
			for i, d := range descs {
				names[i] = d.Type.CanonicalName()
			}
			slices.Sort(names)
			return a.printNames(names)
		},
	}
}

// ── version ──────────────────────────────────────────────────────────────────

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the wexapi version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wexapi %s (client %s)\n", version, client.Version)
		},
	}
}
