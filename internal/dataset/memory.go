package dataset

// MemoryDataset is an in-memory adapter, used for composition and tests.
type MemoryDataset struct {
	name  string
	items []Item
}

func NewMemoryDataset(name string, items []Item) *MemoryDataset {
	return &MemoryDataset{name: name, items: items}
}

func (d *MemoryDataset) Name() string { return d.name }

func (d *MemoryDataset) Len() int { return len(d.items) }

func (d *MemoryDataset) Item(i int) (Item, error) {
	if err := checkIndex(i, len(d.items)); err != nil {
		return Item{}, err
	}
	return d.items[i], nil
}
