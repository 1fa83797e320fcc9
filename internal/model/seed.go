package model

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// LoadSeed reads an initial board from a TOML file:
//
//	[[lists]]
//	name = "todo"
//
//	  [[lists.items]]
//	  id = "t1"
//	  title = "Write the docs"
func LoadSeed(path string) (Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Board{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a TOML seed board and validates it.
func ParseSeed(data []byte) (Board, error) {
	var b Board
	if err := toml.Unmarshal(data, &b); err != nil {
		return Board{}, fmt.Errorf("invalid seed board: %w", err)
	}
	for i := range b.Lists {
		if b.Lists[i].Items == nil {
			b.Lists[i].Items = []Item{}
		}
	}
	if err := b.Validate(); err != nil {
		return Board{}, fmt.Errorf("invalid seed board: %w", err)
	}
	return b, nil
}

// EncodeSeed writes the board in the seed TOML format.
func EncodeSeed(b Board) ([]byte, error) {
	data, err := toml.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to encode seed board: %w", err)
	}
	return data, nil
}
