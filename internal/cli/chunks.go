package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
	"github.com/souviksenapati/TejastraX/internal/infrastructure/search/keyword"
)

const previewRunes = 80

func newChunksCommand(deps Deps) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "chunks FILE.pdf",
		Short: "Show the chunks a local PDF would be indexed as",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Chunker == nil {
				return errors.New("chunking is not configured")
			}
			pages, err := readPages(cmd, deps, args[0])
			if err != nil {
				return err
			}
			chunks := deps.Chunker.Chunk(pages)
			if limit > 0 && len(chunks) > limit {
				chunks = chunks[:limit]
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tPAGE\tTYPE\tIMPORTANCE\tTEXT")
			for i, c := range chunks {
				fmt.Fprintf(w, "%d\t%d\t%s\t%.2f\t%s\n", i+1, c.Page, c.ContentType, c.ImportanceScore, preview(c.Text))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most N chunks (0 = all)")
	return cmd
}

func newFactsCommand(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "facts FILE.pdf",
		Short: "List figures (percentages, days, months, years, beds) found in a local PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pages, err := readPages(cmd, deps, args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PAGE\tVALUE\tUNIT\tCONTEXT")
			for _, page := range pages {
				for _, fact := range keyword.NumericFacts(page.Text) {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", page.Page, fact.Value, fact.Unit, preview(fact.Context))
				}
			}
			return w.Flush()
		},
	}
}

func readPages(cmd *cobra.Command, deps Deps, path string) ([]domain.PageText, error) {
	if deps.Extractor == nil {
		return nil, errors.New("pdf extraction is not configured")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return deps.Extractor.ExtractPages(cmd.Context(), raw)
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewRunes]) + "..."
}
