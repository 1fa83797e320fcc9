package cli

import (
	"encoding/json"
	"fmt"

	"github.com/amterp/taskboard/internal/model"
)

// BoardOutput is the JSON output for `show --json`.
type BoardOutput struct {
	Lists []ListOutput `json:"lists"`
}

// ListOutput is one list of the board, in display order.
type ListOutput struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name"`
	Items       []model.Item `json:"items"`
}

// NewBoardOutput creates a BoardOutput from a board.
func NewBoardOutput(board model.Board) BoardOutput {
	out := BoardOutput{Lists: make([]ListOutput, 0, len(board.Lists))}
	for _, l := range board.Lists {
		items := l.Items
		if items == nil {
			items = []model.Item{}
		}
		out.Lists = append(out.Lists, ListOutput{
			Name:        l.Name,
			DisplayName: model.DisplayName(l.Name),
			Items:       items,
		})
	}
	return out
}

// printJson marshals v as indented JSON and prints it to stdout.
func printJson(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}
