package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/thanks/internal/compose"
	"github.com/Iron-Ham/thanks/internal/orchestrator"
)

var autoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Find integrated items and write acknowledgments for them",
	Long: `Look up every tracked item in the history of a branch.

A pull request is acknowledged once its tip is on the branch and the merge
that brought it in was authored by you. A series is acknowledged only when
every one of its patches is found among the commits you committed to the
branch within the --since window.

For each match a .thanks file is written to the output directory and the
item is marked sent. Nothing is mailed.`,
	Args: cobra.NoArgs,
	RunE: runAuto,
}

func init() {
	autoCmd.Flags().StringP("branch", "b", "", "branch to match against (default: current branch)")
	autoCmd.Flags().String("since", "", "git date window for series lookups (default: match.since)")
	autoCmd.Flags().StringP("outdir", "o", "", "directory for .thanks files (default: paths.output_dir)")
	rootCmd.AddCommand(autoCmd)
}

func runAuto(cmd *cobra.Command, args []string) error {
	env, err := newRunEnv(cmd, envOptions{compose: true, repo: true})
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	branch, err := env.orch.ResolveBranch(ctx, env.cfg.Match.Branch)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Auto-thankinating using branch %s\n", branch)

	report, err := env.orch.AutoMatch(ctx, branch, env.cfg.Match.Since)
	writeReport(out, report, env.orch.OutputDir(), viper.GetBool("verbose"))
	if err != nil {
		return err
	}
	if report.NothingToDo() {
		fmt.Fprintln(out, "Nothing to do")
		return ErrNothingToDo
	}
	return nil
}

// writeReport prints what a run located, skipped, wrote and discarded.
func writeReport(w io.Writer, report *orchestrator.Report, outDir string, verbose bool) {
	if report == nil {
		return
	}

	for _, item := range report.Located {
		fmt.Fprintf(w, "  %s %s\n", successStyle.Render("Located:"), item.Subject)
	}
	if verbose {
		for _, skip := range report.Skipped {
			detail := string(skip.Reason)
			if len(skip.Missing) > 0 {
				detail += ": missing " + strings.Join(skip.Missing, ", ")
			}
			fmt.Fprintf(w, "  %s %s (%s)\n", mutedStyle.Render("Skipped:"), skip.Item.Subject, detail)
		}
	}

	if len(report.Written) > 0 {
		fmt.Fprintln(w, separator)
		fmt.Fprintf(w, "Generating %d thank-you letters\n", len(report.Written))
		for _, path := range report.Written {
			fmt.Fprintf(w, "  %s %s\n", successStyle.Render("Writing:"), path)
		}
	}
	if len(report.Sent) > 0 {
		fmt.Fprintln(w, separator)
		fmt.Fprintln(w, "You can now run:")
		fmt.Fprintln(w, "  "+commandStyle.Render("git send-email "+filepath.Join(outDir, "*"+compose.ArtifactExt)))
	}

	if len(report.Discarded) > 0 {
		fmt.Fprintf(w, "Discarding %d messages\n", len(report.Discarded))
		for _, item := range report.Discarded {
			fmt.Fprintf(w, "  %s %s\n", warningStyle.Render("Discarded:"), item.Subject)
		}
	}
}
