package cart

import (
	"context"
	"fmt"
	"strings"

	"shopmall-be/internal/catalog"
)

type lineKey struct {
	itemID int64
	size   string
}

func keyOf(ci CartItem) lineKey {
	return lineKey{itemID: ci.ItemID, size: ci.Size}
}

// Merge folds incoming into existing. Lines sharing (item, size) collapse into
// one whose quantity is the sum; order of first appearance is kept.
func Merge(existing, incoming []CartItem) []CartItem {
	out := make([]CartItem, 0, len(existing)+len(incoming))
	index := make(map[lineKey]int, len(existing)+len(incoming))

	add := func(ci CartItem) {
		k := keyOf(ci)
		if i, ok := index[k]; ok {
			out[i].Quantity += ci.Quantity
			return
		}
		index[k] = len(out)
		out = append(out, ci)
	}

	for _, ci := range existing {
		add(ci)
	}
	for _, ci := range incoming {
		add(ci)
	}
	return out
}

// Merger turns request lines into cart items resolved against the catalog.
type Merger struct {
	catalog catalog.Repository
}

func NewMerger(c catalog.Repository) *Merger {
	return &Merger{catalog: c}
}

// Build resolves every line. Sized items must name a size the catalog knows;
// the size of an unsized item is dropped. Any resolution failure is reported
// as ErrCartAddItemFailed wrapping the cause.
func (m *Merger) Build(ctx context.Context, lines []Line) ([]CartItem, error) {
	items := make([]CartItem, 0, len(lines))

	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}

		item, err := m.catalog.FindItem(ctx, l.ItemID)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %w", ErrCartAddItemFailed, l.ItemID, err)
		}

		size := strings.TrimSpace(l.Size)
		if item.Sized() {
			if _, err := m.catalog.FindSizedVariant(ctx, item.ID, size); err != nil {
				return nil, fmt.Errorf("%w: item %d size %q: %w", ErrCartAddItemFailed, l.ItemID, size, err)
			}
		} else {
			size = ""
		}

		items = append(items, CartItem{ItemID: item.ID, Quantity: l.Quantity, Size: size})
	}

	return Merge(nil, items), nil
}
