package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/airblast-dev/test-cdylib/internal/cargo"
	"github.com/airblast-dev/test-cdylib/internal/ui"
)

var errBuildInterrupted = errors.New("build interrupted")

type buildOutcome struct {
	artifact string
	err      error
}

// runBuildWithUI runs the build in the background while the progress UI owns
// the terminal. Diagnostics reach the UI as events and print above it live.
// Quitting the UI early cancels the build.
func runBuildWithUI(ctx context.Context, title string, total int, b *cargo.Builder, intent cargo.Intent, opts ...tea.ProgramOption) (string, error) {
	buildCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan cargo.Event, 256)
	outcomeCh := make(chan buildOutcome, 1)

	go func() {
		bc := *b
		bc.Progress = cargo.ChannelSink{Ch: events}
		bc.Diagnostics = io.Discard
		artifact, err := bc.Build(buildCtx, intent)
		close(events)
		outcomeCh <- buildOutcome{artifact: artifact, err: err}
	}()

	model := ui.NewProgressModel(title, total, events)
	opts = append([]tea.ProgramOption{tea.WithOutput(os.Stderr), tea.WithContext(ctx)}, opts...)
	final, uiErr := tea.NewProgram(model, opts...).Run()

	// The UI reads no more events; the rest go straight to stderr.
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for ev := range events {
			if ev.Kind == cargo.EventDiagnostic && ev.Rendered != "" {
				_, _ = fmt.Fprintln(os.Stderr, strings.TrimRight(ev.Rendered, "\n"))
			}
		}
	}()

	interrupted := uiErr == nil && !ui.Completed(final)
	if interrupted {
		cancel()
	}
	outcome := <-outcomeCh
	<-drained

	switch {
	case outcome.err != nil && interrupted:
		return "", fmt.Errorf("%w: %w", errBuildInterrupted, outcome.err)
	case outcome.err != nil:
		return "", outcome.err
	case uiErr != nil:
		return outcome.artifact, uiErr
	}
	return outcome.artifact, nil
}
