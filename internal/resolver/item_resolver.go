package resolver

import (
	"fmt"
	"strings"

	tberr "github.com/amterp/taskboard/internal/errors"
	"github.com/amterp/taskboard/internal/model"
	"github.com/amterp/taskboard/internal/util"
)

// ItemRef locates an item on the board.
type ItemRef struct {
	Item  model.Item
	List  string
	Index int
}

// ResolveItem finds an item by id, falling back to its title.
// Titles match on their slug, so "fix login bug" finds "Fix Login Bug!".
func ResolveItem(board model.Board, idOrTitle string) (ItemRef, error) {
	query := strings.TrimSpace(idOrTitle)
	if query == "" {
		return ItemRef{}, tberr.InvalidField("item", "cannot be empty")
	}

	// Try direct ID lookup first
	if list, idx, ok := board.Locate(query); ok {
		item, _ := board.ItemAt(list, idx)
		return ItemRef{Item: item, List: list, Index: idx}, nil
	}

	// Fall back to title
	slug := util.Slugify(query)
	if slug == "" {
		return ItemRef{}, tberr.ItemNotFound(query)
	}

	var matches []ItemRef
	for _, l := range board.Lists {
		for i, item := range l.Items {
			if util.Slugify(item.Title) == slug {
				matches = append(matches, ItemRef{Item: item, List: l.Name, Index: i})
			}
		}
	}

	switch len(matches) {
	case 0:
		return ItemRef{}, tberr.ItemNotFound(query)
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.Item.ID
		}
		return ItemRef{}, tberr.InvalidField("item",
			fmt.Sprintf("%q matches several items (%s); use an id", query, strings.Join(ids, ", ")))
	}
}
