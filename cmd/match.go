package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spigell/scholara/internal/scholarship"
	"go.uber.org/zap"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank scholarships from a json file for a profile",
	Run: func(cmd *cobra.Command, _ []string) {
		runMatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("profile", "p", "", "json file with the user profile")
	matchCmd.Flags().StringP("scholarships", "s", "", "json file with an array of scholarship records")
	matchCmd.Flags().IntP("limit", "l", scholarship.DefaultMatchLimit, "maximum number of matches to return (1-100)")

	matchCmd.MarkFlagRequired("profile")
	matchCmd.MarkFlagRequired("scholarships")
}

func runMatch(cmd *cobra.Command) {
	ctx := context.Background()
	logger, cfg := setup()

	profilePath, _ := cmd.Flags().GetString("profile")
	recordsPath, _ := cmd.Flags().GetString("scholarships")
	limit, _ := cmd.Flags().GetInt("limit")

	req := &scholarship.MatchRequest{Limit: limit}
	if err := readJSONFile(profilePath, &req.UserProfile); err != nil {
		logger.Fatal("reading profile", zap.Error(err))
	}
	if err := readJSONFile(recordsPath, &req.Scholarships); err != nil {
		logger.Fatal("reading scholarships", zap.Error(err))
	}

	completer, cleanup, err := newCompleter(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("building completer", zap.Error(err))
	}
	defer cleanup()

	logger.Info("ranking scholarships",
		zap.String("user", req.UserProfile.ID),
		zap.Int("scholarships", len(req.Scholarships)),
		zap.Int("limit", limit),
	)

	resp, err := newRanker(completer, cfg, logger).Match(ctx, req)
	if err != nil {
		logger.Fatal("ranking", zap.Error(err))
	}

	if err := printJSON(cmd, resp); err != nil {
		logger.Fatal("printing result", zap.Error(err))
	}
}

func readJSONFile(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
