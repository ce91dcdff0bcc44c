package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"warpmc/internal/faults"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, errAuthorizationPending):
		return 2
	case errors.Is(err, faults.ErrNotFound):
		return 3
	default:
		return 1
	}
}
