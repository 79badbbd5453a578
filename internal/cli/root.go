// Package cli implements the policyqa command line.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/souviksenapati/TejastraX/internal/core/ports"
)

// Deps supplies what the commands need. Answerer is built lazily so that
// offline commands work without provider credentials.
type Deps struct {
	Answerer  func(ctx context.Context) (ports.DocumentQuestionAnswerer, error)
	Extractor ports.PageExtractor
	Chunker   ports.Chunker
}

func NewRootCommand(deps Deps) *cobra.Command {
	root := &cobra.Command{
		Use:   "policyqa",
		Short: "Ask questions about insurance policy PDFs",
		Long: `policyqa answers natural-language questions about an insurance policy PDF.

Online commands (ask, query) download the document and call the configured
embedding and generation provider. Offline commands (chunks, facts) read a
local PDF and need no credentials.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(
		newAskCommand(deps),
		newQueryCommand(deps),
		newChunksCommand(deps),
		newFactsCommand(deps),
	)
	return root
}

func (d Deps) answerer(ctx context.Context) (ports.DocumentQuestionAnswerer, error) {
	if d.Answerer == nil {
		return nil, errors.New("answering is not configured")
	}
	return d.Answerer(ctx)
}
