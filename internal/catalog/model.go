package catalog

type Kind string

const (
	KindClothes   Kind = "CLOTHES"
	KindAccessory Kind = "ACCESSORY"
)

type Item struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Kind  Kind   `json:"kind"`
}

// Sized reports whether the item is sold per size variant.
func (i *Item) Sized() bool {
	return i.Kind == KindClothes
}

type SizeVariant struct {
	ID        int64  `json:"id"`
	ItemID    int64  `json:"item_id"`
	SizeLabel string `json:"size_label"`
}
