package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pario-ai/listings/pkg/models"
)

func newPropertyCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "property",
		Short: "List, create and delete property listings",
	}
	cmd.AddCommand(
		newPropertyListCmd(configPath),
		newPropertyCreateCmd(configPath),
		newPropertyDeleteCmd(configPath),
	)
	return cmd
}

func newPropertyListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List properties through the collection cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.close() }()

			props, err := a.cache.AllProperties(context.Background())
			if err != nil {
				return err
			}
			fmt.Print(formatProperties(props))
			return nil
		},
	}
}

func newPropertyCreateCmd(configPath *string) *cobra.Command {
	var (
		title       string
		description string
		price       string
		location    string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a property",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := models.ParsePrice(price)
			if err != nil {
				return fmt.Errorf("invalid --price: %w", err)
			}

			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.close() }()

			created, err := a.repo.Create(context.Background(), models.PropertyInput{
				Title:       title,
				Description: description,
				Price:       p,
				Location:    location,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created %s (%s)\n", created.ID, created)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "listing title")
	cmd.Flags().StringVar(&description, "description", "", "listing description")
	cmd.Flags().StringVar(&price, "price", "", "price, e.g. 100000.00")
	cmd.Flags().StringVar(&location, "location", "", "listing location")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("price")
	_ = cmd.MarkFlagRequired("location")
	return cmd
}

func newPropertyDeleteCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.close() }()

			if err := a.repo.Delete(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s.\n", args[0])
			return nil
		},
	}
}

func formatProperties(props []models.Property) string {
	if len(props) == 0 {
		return "No properties found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-36s %-30s %-20s %14s %-20s\n", "ID", "TITLE", "LOCATION", "PRICE", "CREATED")
	b.WriteString(strings.Repeat("-", 124) + "\n")
	for _, p := range props {
		fmt.Fprintf(&b, "%-36s %-30s %-20s %14s %-20s\n",
			p.ID, p.Title, p.Location, p.Price, p.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}
