package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/thanks/internal/errors"
)

var sendCmd = &cobra.Command{
	Use:   "send <number>...",
	Short: "Write acknowledgments for the selected items",
	Long: `Write acknowledgments for tracked items picked by number, without
checking the repository, and mark them sent.

Run "thanks list" to see the numbers. Every number is checked before
anything is written.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

var discardCmd = &cobra.Command{
	Use:   "discard <number>... | all",
	Short: "Stop tracking the selected items",
	Long: `Mark tracked items discarded so they are no longer listed. Records are
kept on disk with a .discarded suffix.

Every number is checked before anything is discarded.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDiscard,
}

func init() {
	sendCmd.Flags().StringP("outdir", "o", "", "directory for .thanks files (default: paths.output_dir)")
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(discardCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	env, err := newRunEnv(cmd, envOptions{compose: true})
	if err != nil {
		return err
	}
	defer env.Close()

	out := cmd.OutOrStdout()
	report, err := env.orch.Send(cmd.Context(), args)
	writeReport(out, report, env.orch.OutputDir(), false)
	if err != nil {
		showSelectionHelp(cmd, env, err)
		return err
	}
	if report.NothingToDo() {
		fmt.Fprintln(out, "Nothing to do")
		return ErrNothingToDo
	}
	return nil
}

func runDiscard(cmd *cobra.Command, args []string) error {
	env, err := newRunEnv(cmd, envOptions{})
	if err != nil {
		return err
	}
	defer env.Close()

	out := cmd.OutOrStdout()
	report, err := env.orch.Discard(cmd.Context(), args)
	writeReport(out, report, env.orch.OutputDir(), false)
	if err != nil {
		showSelectionHelp(cmd, env, err)
		return err
	}
	if report.NothingToDo() {
		fmt.Fprintln(out, "Nothing to do")
		return ErrNothingToDo
	}
	return nil
}

// showSelectionHelp prints the tracked list after a bad selection so the
// valid numbers are visible.
func showSelectionHelp(cmd *cobra.Command, env *runEnv, err error) {
	if !errors.Is(err, errors.ErrInvalidSelection) {
		return
	}
	items, listErr := env.orch.Tracked(cmd.Context())
	if listErr != nil || len(items) == 0 {
		return
	}
	w := cmd.ErrOrStderr()
	fmt.Fprintln(w, separator)
	writeTracked(w, items, env.cfg.Compose.LinkMask)
}
