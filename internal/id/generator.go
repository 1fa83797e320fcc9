package id

import (
	"time"

	fid "github.com/amterp/flexid"
)

// ItemPrefix marks generated item IDs so they can't collide with numeric IDs
// carried over from imported snapshots.
const ItemPrefix = "i_"

var generator *fid.Generator

func init() {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	config := fid.NewConfig().
		WithEpoch(epoch).
		WithTickSize(10 * time.Millisecond).
		WithNumRandomChars(3)

	generator = fid.MustNewGenerator(config)
}

// NewItemID returns a new unique item ID.
func NewItemID() string {
	return ItemPrefix + generator.MustGenerate()
}
