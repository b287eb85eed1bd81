package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/campaign-copy/internal/observability"
	"github.com/jonathan/campaign-copy/internal/types"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check copy against a category's compliance rules",
	Long: `Evaluates text against the compliance rules of a product category and
prints every matched rule with its severity and the aggregate verdict.

Text is read from --text, from --file, or from stdin when neither is given.`,
	RunE: runCheck,
}

var (
	checkCategory string
	checkText     string
	checkFile     string
	checkJSON     bool
	checkStrict   bool
)

func init() {
	checkCmd.Flags().StringVar(&checkCategory, "category", "", "Product category, e.g. Skincare (required)")
	checkCmd.Flags().StringVar(&checkText, "text", "", "Text to check")
	checkCmd.Flags().StringVar(&checkFile, "file", "", "File containing the text to check")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print issues and verdict as JSON")
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "Exit with an error when the verdict is Needs Review")

	_ = checkCmd.MarkFlagRequired("category")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	text, err := checkInput(cmd.InOrStdin())
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no text to check")
	}

	if len(a.catalog.RulesFor(checkCategory)) == 0 {
		a.logger.Warn().Str("category", checkCategory).Msg("category has no compliance rules")
	}

	issues, verdict := a.evaluator.Check(text, checkCategory)

	out := cmd.OutOrStdout()
	if checkJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Issues  []types.ComplianceIssue `json:"issues"`
			Verdict types.Verdict           `json:"verdict"`
		}{issues, verdict}); err != nil {
			return err
		}
	} else {
		observability.NewPrinter(out).PrintCompliance(issues, verdict)
	}

	if checkStrict && verdict == types.VerdictNeedsReview {
		return fmt.Errorf("verdict is %s", verdict)
	}
	return nil
}

func checkInput(stdin io.Reader) (string, error) {
	switch {
	case checkText != "":
		return checkText, nil
	case checkFile != "":
		data, err := os.ReadFile(checkFile)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", checkFile, err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
}
