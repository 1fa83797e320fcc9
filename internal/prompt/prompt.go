package prompt

import "errors"

// ErrNonInteractive is returned when prompting in non-interactive mode.
var ErrNonInteractive = errors.New("cannot prompt in non-interactive mode")

// Prompter asks the user for what a command was not given on the command line.
type Prompter interface {
	// SelectList asks which list to use. lists are list names; they are
	// shown by display name and the chosen name is returned.
	SelectList(title string, lists []string) (string, error)

	// InputTitle asks for a task title. Blank answers are refused.
	InputTitle(title string, defaultValue string) (string, error)

	// Confirm prompts for yes/no, e.g. before overwriting a config.
	Confirm(title string, defaultValue bool) (bool, error)
}

// NoopPrompter returns errors for all prompts (non-interactive mode).
type NoopPrompter struct{}

func (p *NoopPrompter) SelectList(title string, lists []string) (string, error) {
	return "", ErrNonInteractive
}

func (p *NoopPrompter) InputTitle(title string, defaultValue string) (string, error) {
	return "", ErrNonInteractive
}

func (p *NoopPrompter) Confirm(title string, defaultValue bool) (bool, error) {
	return false, ErrNonInteractive
}
