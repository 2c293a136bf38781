// Package prompt asks a human for their ATLAS username and password in the
// terminal. The password is masked as it is typed.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned when the user abandons the form.
var ErrCancelled = errors.New("login prompt cancelled")

// Options configures Run.
type Options struct {
	// Notice is shown above the form.
	Notice string
	// Theme names one of ThemeNames; unknown names fall back to DefaultTheme.
	Theme string
	// Username pre-fills the username field.
	Username string
	// Input and Output default to the process terminal.
	Input  io.Reader
	Output io.Writer
}

// Result is what the user entered. Theme is the theme shown when the form
// closed, which differs from Options.Theme if the user cycled it.
type Result struct {
	Username string
	Password string
	Theme    string
}

// Run shows the login form and blocks until the user submits or cancels it
// or ctx is done.
func Run(ctx context.Context, opts Options) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	m := newModel(opts.Notice, GetTheme(opts.Theme), opts.Username)

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}

	final, err := tea.NewProgram(m, progOpts...).Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		return Result{}, fmt.Errorf("run login prompt: %w", err)
	}
	return result(final)
}

func result(final tea.Model) (Result, error) {
	fm, ok := final.(model)
	if !ok {
		return Result{}, fmt.Errorf("unexpected prompt model %T", final)
	}
	if fm.cancelled || !fm.submitted {
		return Result{}, ErrCancelled
	}
	return Result{Username: fm.username(), Password: fm.password(), Theme: fm.theme.Name}, nil
}
