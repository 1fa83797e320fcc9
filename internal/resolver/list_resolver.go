package resolver

import (
	"fmt"
	"strings"

	tberr "github.com/amterp/taskboard/internal/errors"
	"github.com/amterp/taskboard/internal/model"
	"github.com/amterp/taskboard/internal/prompt"
	"github.com/amterp/taskboard/internal/util"
)

// ListResolver turns user input into a list name on the board.
type ListResolver struct {
	prompter prompt.Prompter
}

// NewListResolver creates a new list resolver.
func NewListResolver(prompter prompt.Prompter) *ListResolver {
	return &ListResolver{prompter: prompter}
}

// Resolve determines which list to use:
// 1. An exact list name
// 2. A heading that normalizes to a list name ("In Progress" -> in_progress)
// 3. Nothing given: prompt if interactive, otherwise fail
func (r *ListResolver) Resolve(board model.Board, input string, interactive bool) (string, error) {
	input = strings.TrimSpace(input)

	if input != "" {
		if board.HasList(input) {
			return input, nil
		}
		if name := util.ListName(input); board.HasList(name) {
			return name, nil
		}
		return "", tberr.ListNotFound(input)
	}

	names := board.ListNames()
	if len(names) == 0 {
		return "", fmt.Errorf("board has no lists; run 'taskboard init' first")
	}
	if !interactive {
		return "", tberr.InvalidField("list", "required in non-interactive mode")
	}

	return r.prompter.SelectList("Select list", names)
}
