package cart

import "shopmall-be/internal/catalog"

func itemIDs(items []CartItem) []int64 {
	ids := make([]int64, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, ci := range items {
		if !seen[ci.ItemID] {
			seen[ci.ItemID] = true
			ids = append(ids, ci.ItemID)
		}
	}
	return ids
}

// toView groups cart lines per item. Lines whose item vanished from the
// catalog are left out.
func toView(c *Cart, items map[int64]*catalog.Item) *View {
	v := &View{CartID: c.ID, Items: []ViewItem{}}
	index := make(map[int64]int)

	for _, ci := range c.Items {
		item, ok := items[ci.ItemID]
		if !ok {
			continue
		}

		i, ok := index[ci.ItemID]
		if !ok {
			i = len(v.Items)
			index[ci.ItemID] = i
			v.Items = append(v.Items, ViewItem{ItemID: item.ID, Name: item.Name, Price: item.Price})
		}
		v.Items[i].Options = append(v.Items[i].Options, ViewOption{Size: ci.Size, Quantity: ci.Quantity})

		v.TotalAmount += item.Price * ci.Quantity
		v.TotalQuantity += ci.Quantity
	}

	return v
}

// toOrderSummary flattens the view; a non-nil itemID keeps only that item.
func toOrderSummary(v *View, itemID *int64) (*OrderSummary, error) {
	s := &OrderSummary{Lines: []SummaryLine{}}

	for _, vi := range v.Items {
		if itemID != nil && vi.ItemID != *itemID {
			continue
		}
		for _, opt := range vi.Options {
			amount := vi.Price * opt.Quantity
			s.Lines = append(s.Lines, SummaryLine{
				ItemID:   vi.ItemID,
				Name:     vi.Name,
				Price:    vi.Price,
				Size:     opt.Size,
				Quantity: opt.Quantity,
				Amount:   amount,
			})
			s.TotalAmount += amount
			s.TotalQuantity += opt.Quantity
		}
	}

	if itemID != nil && len(s.Lines) == 0 {
		return nil, ErrCartItemNotFound
	}
	return s, nil
}
