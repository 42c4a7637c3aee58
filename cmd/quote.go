package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bnema/meli-relist-cli/internal/application"
	"github.com/bnema/meli-relist-cli/internal/domain"
	"github.com/spf13/cobra"
)

const maxRequestBytes = 1 << 20

func newQuoteCmd(app *app) *cobra.Command {
	var requestPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote listing prices across linked accounts",
		Long:  "Read a pricing request as JSON (from a file, or stdin with --request -) and solve the listing price of every selected account and tier.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := readQuoteRequest(cmd.InOrStdin(), requestPath)
			if err != nil {
				return err
			}
			return runQuote(cmd, app, req, asJSON)
		},
	}

	cmd.Flags().StringVar(&requestPath, "request", "", "Path to the JSON pricing request, or - for stdin")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	_ = cmd.MarkFlagRequired("request")

	return cmd
}

func readQuoteRequest(stdin io.Reader, path string) (application.QuoteRequest, error) {
	var source io.Reader = stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return application.QuoteRequest{}, fmt.Errorf("open pricing request: %w", err)
		}
		defer file.Close()
		source = file
	}

	var req application.QuoteRequest
	if err := json.NewDecoder(io.LimitReader(source, maxRequestBytes)).Decode(&req); err != nil {
		return application.QuoteRequest{}, fmt.Errorf("%w: decode json: %w", domain.ErrInvalidRequest, err)
	}

	return req, nil
}

func runQuote(cmd *cobra.Command, app *app, req application.QuoteRequest, asJSON bool) error {
	pricing, err := req.ToDomain()
	if err != nil {
		return err
	}

	var batch domain.BatchQuote
	var quoteErr error
	quote := func(ctx context.Context, progress func(application.QuoteProgress)) error {
		batch, quoteErr = app.quotes.QuoteWithProgress(ctx, pricing, progress)
		return nil
	}

	if asJSON {
		_ = quote(cmd.Context(), nil)
	} else if err := runQuoteSpinner(cmd.Context(), cmd.ErrOrStderr(), len(pricing.Accounts), quote); err != nil {
		return err
	}

	if batch.RequestID == "" {
		return quoteErr
	}
	if err := writeBatchOutput(cmd, app, application.NewBatchView(batch), asJSON); err != nil {
		return err
	}

	return quoteErr
}

func writeBatchOutput(cmd *cobra.Command, app *app, view application.BatchView, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	rendered, err := app.batchRenderer(view)
	if err != nil {
		return fmt.Errorf("render quote: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
