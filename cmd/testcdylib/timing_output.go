package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/airblast-dev/test-cdylib/internal/observ"
)

// newTimer returns a Timer when --timings is set and nil otherwise; a nil
// Timer records nothing.
func newTimer(cmd *cobra.Command) *observ.Timer {
	enabled, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil || !enabled {
		return nil
	}
	return observ.NewTimer()
}

func printTimings(t *observ.Timer) {
	if t == nil {
		return
	}
	fmt.Fprint(os.Stderr, t.Summary())
}
