package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Veraticus/binwise/internal/cli"
	"github.com/Veraticus/binwise/internal/engine"
	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/service"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}
	cmd.AddCommand(usersAddCmd())
	return cmd
}

func usersAddCmd() *cobra.Command {
	var profile model.UserProfile

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a user at Bronze with zero points",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if profile.ID == "" {
				profile.ID = uuid.NewString()
			}
			return withEngine(cmd.Context(), false, func(eng *engine.Engine, _ service.Storage) error {
				created, err := eng.Register(cmd.Context(), profile)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("Registered %s (%s) at %s", created.ID, created.Email, created.Level)))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&profile.ID, "id", "", "user id (generated when omitted)")
	cmd.Flags().StringVar(&profile.Email, "email", "", "email address")
	cmd.Flags().StringVar(&profile.DisplayName, "name", "", "display name")
	cmd.Flags().StringVar(&profile.PhotoRef, "photo", "", "profile photo reference")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
