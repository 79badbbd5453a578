package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCommand(deps Deps) *cobra.Command {
	var (
		document  string
		questions []string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "ask --document URL [question...]",
		Short: "Answer one or more questions about a policy PDF",
		Example: `  policyqa ask --document https://example.com/policy.pdf \
    "What is the grace period for premium payment?" \
    "What is the waiting period for cataract surgery?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			all := append(append([]string{}, questions...), args...)
			if strings.TrimSpace(document) == "" {
				return errors.New("--document is required")
			}
			if len(all) == 0 {
				return errors.New("at least one question is required")
			}

			answerer, err := deps.answerer(cmd.Context())
			if err != nil {
				return err
			}
			answers, err := answerer.AnswerDocumentQuestions(cmd.Context(), document, all)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string][]string{"answers": answers})
			}
			for i, answer := range answers {
				fmt.Fprintf(out, "%d. %s\n   %s\n", i+1, all[i], answer)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&document, "document", "d", "", "URL of the policy PDF")
	cmd.Flags().StringArrayVarP(&questions, "question", "q", nil, "question to ask (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print {\"answers\": [...]} JSON")
	return cmd
}

func newQueryCommand(deps Deps) *cobra.Command {
	var document string
	cmd := &cobra.Command{
		Use:   "query --document URL QUESTION",
		Short: "Answer a single question and print the answer with its metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(document) == "" {
				return errors.New("--document is required")
			}
			answerer, err := deps.answerer(cmd.Context())
			if err != nil {
				return err
			}
			result, err := answerer.AnswerDocumentQuery(cmd.Context(), document, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVarP(&document, "document", "d", "", "URL of the policy PDF")
	return cmd
}
