package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bnema/meli-relist-cli/internal/adapters/marketplace"
	quoterender "github.com/bnema/meli-relist-cli/internal/adapters/render/quote"
	"github.com/bnema/meli-relist-cli/internal/application"
	"github.com/bnema/meli-relist-cli/internal/domain"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

var errMissingClientID = errors.New("marketplace client id is empty: set MLR_MARKETPLACE_CLIENT_ID")

func newAccountCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage linked seller accounts",
	}

	cmd.AddCommand(
		newAccountLinkCmd(app),
		newAccountListCmd(app),
		newAccountRemoveCmd(app),
		newAccountShippingModeCmd(app),
	)

	return cmd
}

func newAccountLinkCmd(app *app) *cobra.Command {
	var listenAddr string
	var shippingMode string

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Link a seller account through the browser authorization flow",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listenAddr == "" {
				listenAddr = app.cfg.Link.ListenAddr
			}
			return runAccountLink(cmd, app, listenAddr, shippingMode)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "Callback listen address (defaults to link.listen_addr)")
	cmd.Flags().StringVar(&shippingMode, "shipping-mode", "", "Logistics mode: me2, me1, custom or not_specified (new accounts default to me2)")

	return cmd
}

func runAccountLink(cmd *cobra.Command, app *app, listenAddr string, shippingMode string) error {
	if app.cfg.Marketplace.ClientID == "" {
		return errMissingClientID
	}

	state, err := marketplace.NewState()
	if err != nil {
		return fmt.Errorf("generate oauth state: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	server, err := marketplace.StartCallbackServer(listenAddr, state)
	if err != nil {
		return fmt.Errorf("start callback server: %w", err)
	}

	authURL := app.oauth.AuthCodeURL(state, verifier, server.RedirectURI())
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to link a Mercado Livre account:\n%s\n", authURL)

	code, err := server.WaitForCode(app.cfg.Link.Timeout)
	if err != nil {
		return fmt.Errorf("wait for oauth callback: %w", err)
	}

	grant, err := app.oauth.Exchange(cmd.Context(), code, verifier, server.RedirectURI())
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}

	account, err := app.accounts.Link(cmd.Context(), grant, shippingMode)
	if err != nil {
		return fmt.Errorf("save linked account: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Linked account %s (seller %s, shipping %s)\n", account.Nickname, account.SellerID, account.ShippingMode)
	return nil
}

func newAccountListCmd(app *app) *cobra.Command {
	var refresh bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List linked accounts and their token state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			views, err := app.accounts.List(cmd.Context(), refresh)
			if err != nil && views == nil {
				return err
			}
			if writeErr := writeAccountsOutput(cmd, app, views, asJSON); writeErr != nil {
				return writeErr
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refresh expired tokens before listing")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func writeAccountsOutput(cmd *cobra.Command, app *app, views []application.AccountView, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	rendered, err := app.accountRenderer(views, quoterender.RenderOptions{Now: app.now()})
	if err != nil {
		return fmt.Errorf("render accounts: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func newAccountRemoveCmd(app *app) *cobra.Command {
	var nickname string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a linked account and its stored tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.accounts.Remove(cmd.Context(), domain.Nickname(nickname)); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed account %s\n", nickname)
			return nil
		},
	}

	cmd.Flags().StringVar(&nickname, "nickname", "", "Account nickname")
	_ = cmd.MarkFlagRequired("nickname")

	return cmd
}

func newAccountShippingModeCmd(app *app) *cobra.Command {
	var nickname string
	var mode string

	cmd := &cobra.Command{
		Use:   "shipping-mode",
		Short: "Set the logistics mode of a linked account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := app.accounts.SetShippingMode(cmd.Context(), domain.Nickname(nickname), mode)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Account %s shipping mode: %s\n", account.Nickname, account.ShippingMode)
			return nil
		},
	}

	cmd.Flags().StringVar(&nickname, "nickname", "", "Account nickname")
	cmd.Flags().StringVar(&mode, "mode", "", "Logistics mode: me2, me1, custom or not_specified")
	_ = cmd.MarkFlagRequired("nickname")
	_ = cmd.MarkFlagRequired("mode")

	return cmd
}
