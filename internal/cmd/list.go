package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/thanks/internal/tracking"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tracked pull requests and series",
	Long: `List the pull requests and patch series awaiting acknowledgment.

The numbers shown are the ones "thanks send" and "thanks discard" accept.
They stay stable between runs as long as nothing is sent or discarded.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	env, err := newRunEnv(cmd, envOptions{})
	if err != nil {
		return err
	}
	defer env.Close()

	items, err := env.orch.Tracked(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "No thanks necessary.")
		return ErrNothingToDo
	}

	writeTracked(out, items, env.cfg.Compose.LinkMask)
	fmt.Fprintln(out, separator)
	fmt.Fprintln(out, "You can send them using:")
	fmt.Fprintln(out, "  "+commandStyle.Render("thanks send 1 [2 3 ...]"))
	return nil
}

// writeTracked prints the numbered list of active items.
func writeTracked(w io.Writer, items []*tracking.Item, linkMask string) {
	fmt.Fprintln(w, titleStyle.Render("Currently tracking:"))
	for i, item := range items {
		fmt.Fprintf(w, "%s: %s\n", indexStyle.Render(fmt.Sprint(i+1)), item.Subject)
		fmt.Fprintf(w, "       %s %s <%s>\n", labelStyle.Render("From:"), item.FromName, item.FromEmail)
		fmt.Fprintf(w, "       %s %s\n", labelStyle.Render("Date:"), item.SentDate)
		if link := formatLink(linkMask, item.MessageID); link != "" {
			fmt.Fprintf(w, "       %s %s\n", labelStyle.Render("Link:"), link)
		}
	}
}

func formatLink(mask, msgid string) string {
	if mask == "" || msgid == "" {
		return ""
	}
	return fmt.Sprintf(mask, strings.Trim(msgid, "<>"))
}
