package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spigell/scholara/internal/scholarship"
	"github.com/spigell/scholara/internal/validation"
	"go.uber.org/zap"
)

const (
	PromptReportByProvider = "Report by provider"
	PromptEligibility      = "Check eligibility for a nationality"
	PromptProposalsToFile  = "Dump proposals to file"
	PromptExit             = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptReportByProvider, PromptEligibility, PromptProposalsToFile, PromptExit},
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Search the web for new scholarships and propose them for review",
	Run: func(cmd *cobra.Command, _ []string) {
		runDiscover(cmd)
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().StringP("query", "q", "", "free text search query")
	discoverCmd.Flags().String("degree-level", "", "degree level filter, e.g. masters")
	discoverCmd.Flags().String("country", "", "country filter")
	discoverCmd.Flags().Int("year", 0, "intake year filter")
	discoverCmd.Flags().IntP("max-results", "m", scholarship.DefaultMaxResults, "maximum number of proposals (1-15)")
	discoverCmd.Flags().BoolP("yes", "y", false, "print the result and exit without the interactive menu")

	discoverCmd.MarkFlagRequired("query")
}

func runDiscover(cmd *cobra.Command) {
	ctx := context.Background()
	logger, cfg := setup()

	req := scholarship.DiscoverRequest{}
	req.Query, _ = cmd.Flags().GetString("query")
	req.DegreeLevel, _ = cmd.Flags().GetString("degree-level")
	req.Country, _ = cmd.Flags().GetString("country")
	req.MaxResults, _ = cmd.Flags().GetInt("max-results")
	if year, _ := cmd.Flags().GetInt("year"); year != 0 {
		req.Year = &year
	}

	completer, cleanup, err := newCompleter(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("building completer", zap.Error(err))
	}
	defer cleanup()

	orchestrator, err := newOrchestrator(completer, cfg, logger)
	if err != nil {
		logger.Fatal("building discovery", zap.Error(err))
	}

	resp, err := orchestrator.Discover(ctx, req)
	if err != nil {
		logger.Fatal("discovery", zap.Error(err))
	}

	if err := printJSON(cmd, resp); err != nil {
		logger.Fatal("printing result", zap.Error(err))
	}

	proposals := resp.Proposals()
	if proposals.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no proposals"), zap.Strings("errors", resp.Errors))
		return
	}

	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, cfg.Discovery.DumpDir, proposals); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, logger *zap.Logger, dumpDir string, proposals *scholarship.Proposals) error {
	switch action {
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptReportByProvider:
		pretty, _ := json.MarshalIndent(proposals.ReportByProvider(), "", "  ")
		logger.Info(string(pretty), zap.Int("proposals count", proposals.Len()))
		return nil
	case PromptEligibility:
		return checkEligibility(logger, proposals)
	case PromptProposalsToFile:
		filename, err := proposals.DumpToTmpFile(dumpDir)
		if err != nil {
			return fmt.Errorf("dump proposals to file: %w", err)
		}
		logger.Info("dumping proposals to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func checkEligibility(logger *zap.Logger, proposals *scholarship.Proposals) error {
	nationalityPrompt := promptui.Prompt{
		Label: "Nationality",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("nationality is required")
			}
			return nil
		},
	}

	nationality, err := nationalityPrompt.Run()
	if err != nil {
		return err
	}

	for _, p := range proposals.Items {
		eligible, reasons := validation.IsEligibleForUser(p.Extracted, nationality)
		logger.Info("eligibility",
			zap.String("name", p.Extracted.Name),
			zap.Bool("eligible", eligible),
			zap.Strings("reasons", reasons),
		)
	}
	return nil
}
