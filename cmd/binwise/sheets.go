package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/binwise/internal/cli"
	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/config"
	"github.com/Veraticus/binwise/internal/sheets"
)

func sheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Google Sheets export setup",
	}
	cmd.AddCommand(sheetsAuthCmd())
	return cmd
}

func sheetsAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize binwise to write your spreadsheets",
		Long: `Run the OAuth2 flow in the browser and cache the token locally.
Requires sheets.client_id and sheets.client_secret (or GOOGLE_SHEETS_CLIENT_ID
and GOOGLE_SHEETS_CLIENT_SECRET).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			clientID := firstNonEmpty(viper.GetString("sheets.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID"))
			clientSecret := firstNonEmpty(viper.GetString("sheets.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET"))
			if clientID == "" || clientSecret == "" {
				return common.NewUserError("Set sheets.client_id and sheets.client_secret first.", sheets.ErrNoAuth)
			}

			tokenFile := viper.GetString("sheets.token_file")
			if tokenFile == "" {
				tokenFile = config.DefaultTokenFile()
			}

			token, err := sheets.GetOrCreateToken(cmd.Context(), sheets.OAuth2Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				TokenFile:    config.ExpandPath(tokenFile),
				CallbackAddr: viper.GetString("sheets.callback_addr"),
			})
			if err != nil {
				return fmt.Errorf("authorization failed: %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, cli.FormatSuccess("Authorized, token saved to "+tokenFile))
			if token.RefreshToken != "" {
				_, _ = fmt.Fprintln(out, cli.FormatInfo("Set sheets.refresh_token to this value to export without the token file:"))
				_, _ = fmt.Fprintln(out, token.RefreshToken)
			}
			return nil
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
