package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	tberr "github.com/amterp/taskboard/internal/errors"
)

// SnapshotKey is the storage slot holding the serialized board.
const SnapshotKey = "tasks-data"

// EncodeSnapshot serializes the board as a JSON object keyed by list name,
// in board order, each value being the list's items:
//
//	{"todo":[{"id":"a1","title":"Write docs"}],"done":[]}
func EncodeSnapshot(b Board) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, l := range b.Lists {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(l.Name)
		if err != nil {
			return nil, err
		}
		items := l.Items
		if items == nil {
			items = []Item{}
		}
		data, err := json.Marshal(items)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(data)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// snapshotItem accepts both string and numeric IDs; older snapshots used numbers.
type snapshotItem struct {
	ID    json.RawMessage `json:"id"`
	Title *string         `json:"title"`
}

// DecodeSnapshot parses a serialized board, keeping list order as written.
// Anything that doesn't match the snapshot shape is a MalformedSnapshotError.
func DecodeSnapshot(data []byte) (Board, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return Board{}, err
	}

	board := Board{Lists: []List{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Board{}, tberr.MalformedSnapshot("reading list name", err)
		}
		name, ok := tok.(string)
		if !ok || name == "" {
			return Board{}, tberr.MalformedSnapshot(fmt.Sprintf("invalid list name %v", tok), nil)
		}
		if board.HasList(name) {
			return Board{}, tberr.MalformedSnapshot("duplicate list "+name, nil)
		}

		var raw []snapshotItem
		if err := dec.Decode(&raw); err != nil {
			return Board{}, tberr.MalformedSnapshot("list "+name+" is not an item array", err)
		}

		items := make([]Item, 0, len(raw))
		for i, r := range raw {
			id, err := decodeItemID(r.ID)
			if err != nil {
				return Board{}, tberr.MalformedSnapshot(fmt.Sprintf("list %s item %d", name, i), err)
			}
			item := Item{ID: id}
			if r.Title != nil {
				item.Title = *r.Title
			}
			items = append(items, item)
		}
		board.Lists = append(board.Lists, List{Name: name, Items: items})
	}

	if err := expectDelim(dec, '}'); err != nil {
		return Board{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Board{}, tberr.MalformedSnapshot("trailing data after board", nil)
	}
	if err := board.Validate(); err != nil {
		return Board{}, tberr.MalformedSnapshot("invariant violated", err)
	}
	return board, nil
}

// MarshalJSON encodes the board in snapshot form.
func (b Board) MarshalJSON() ([]byte, error) {
	return EncodeSnapshot(b)
}

// UnmarshalJSON decodes the board from snapshot form.
func (b *Board) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeSnapshot(data)
	if err != nil {
		return err
	}
	*b = decoded
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return tberr.MalformedSnapshot("unexpected end of data", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return tberr.MalformedSnapshot(fmt.Sprintf("expected %q, got %v", want, tok), nil)
	}
	return nil
}

func decodeItemID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("missing id")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", fmt.Errorf("empty id")
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("id must be a string or number, got %s", raw)
}
