package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Iron-Ham/thanks/internal/cmd"
)

func main() {
	err := cmd.Execute()
	if err != nil && !errors.Is(err, cmd.ErrNothingToDo) {
		fmt.Fprintln(os.Stderr, cmd.FormatError(err))
	}
	os.Exit(cmd.ExitCode(err))
}
