package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"claimcheck/internal/model"
	"claimcheck/internal/store"
)

var (
	verifyMedia   []string
	verifyTimeout time.Duration
	verifyProbe   bool
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <claim-text>",
	Short: "Run the verification pipeline once on a single claim",
	Long: `Verify runs the full pipeline - evidence gathering, recency analysis,
oracle judgment, heuristic fallback, fusion and explanation generation -
on one claim and prints the resulting record as JSON.

No queue or database is touched; the claim lives in memory.

Example:
  claimcheck verify "Bandra station is flooding right now, trains stopped"
  claimcheck verify "Andheri bridge collapsed" --media http://example.com/img.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringArrayVar(&verifyMedia, "media", nil, "media URL (repeatable)")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 3*time.Minute, "overall pipeline timeout")
	verifyCmd.Flags().BoolVar(&verifyProbe, "probe", false, "probe evidence URLs to backfill missing dates")
}

func runVerify(cmd *cobra.Command, args []string) error {
	text := args[0]
	if n := utf8.RuneCountInString(text); n < model.MinClaimTextLen || n > model.MaxClaimTextLen {
		return fmt.Errorf("claim text must be %d-%d characters", model.MinClaimTextLen, model.MaxClaimTextLen)
	}
	if len(verifyMedia) > model.MaxMediaURLs {
		return fmt.Errorf("at most %d media URLs allowed", model.MaxMediaURLs)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Probe.Enabled = verifyProbe

	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

	st := store.NewMemoryStore()
	claim := &model.Claim{
		ID:    uuid.NewString(),
		Text:  text,
		Media: verifyMedia,
		OriginalSource: model.OriginalSource{
			Platform: "cli",
		},
	}
	if err := st.Create(ctx, claim); err != nil {
		return fmt.Errorf("create claim: %w", err)
	}

	runner, err := buildRunner(ctx, cfg, st)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Verifying: %s\n", text)
	}

	if err := runner.Process(ctx, model.VerificationJob{ClaimID: claim.ID}); err != nil {
		return fmt.Errorf("verification: %w", err)
	}

	verified, err := st.Get(ctx, claim.ID)
	if err != nil {
		return fmt.Errorf("read result: %w", err)
	}

	out, err := json.MarshalIndent(verified, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
