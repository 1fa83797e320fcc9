package prompt

import (
	"errors"
	"strings"

	"github.com/amterp/taskboard/internal/model"
	"github.com/charmbracelet/huh"
)

// HuhPrompter implements Prompter using the charmbracelet/huh library.
type HuhPrompter struct{}

// NewHuhPrompter creates a new huh-based prompter.
func NewHuhPrompter() *HuhPrompter {
	return &HuhPrompter{}
}

func (p *HuhPrompter) SelectList(title string, lists []string) (string, error) {
	var result string

	err := huh.NewSelect[string]().
		Title(title).
		Options(listOptions(lists)...).
		Value(&result).
		Run()

	return result, err
}

// listOptions labels each list by its display name ("in progress") while
// keeping the list name as the value.
func listOptions(lists []string) []huh.Option[string] {
	opts := make([]huh.Option[string], len(lists))
	for i, name := range lists {
		opts[i] = huh.NewOption(model.DisplayName(name), name)
	}
	return opts
}

func (p *HuhPrompter) InputTitle(title string, defaultValue string) (string, error) {
	result := defaultValue

	err := huh.NewInput().
		Title(title).
		Validate(validateTitle).
		Value(&result).
		Run()

	return strings.TrimSpace(result), err
}

func validateTitle(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("title cannot be empty")
	}
	return nil
}

func (p *HuhPrompter) Confirm(title string, defaultValue bool) (bool, error) {
	result := defaultValue

	err := huh.NewConfirm().
		Title(title).
		Value(&result).
		Run()

	return result, err
}
