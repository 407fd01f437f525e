package catalog

import (
	"sort"

	"sales-analytics-service/internal/models"
)

// Index provides lookup of catalog products by numeric id
type Index struct {
	// ByID maps catalog ids to products
	ByID map[int]*models.Product

	// AllProducts holds every indexed product
	AllProducts []models.Product
}

// NewIndex creates a new product index. When ids repeat the first product
// wins.
func NewIndex(products []models.Product) *Index {
	index := &Index{
		ByID:        make(map[int]*models.Product, len(products)),
		AllProducts: products,
	}

	for i := range products {
		p := &index.AllProducts[i]
		if _, exists := index.ByID[p.ID]; !exists {
			index.ByID[p.ID] = p
		}
	}
	return index
}

// Lookup finds the catalog product for a sales product id such as "P101"
func (idx *Index) Lookup(productID string) (*models.Product, bool) {
	if idx == nil {
		return nil, false
	}
	n, ok := models.ProductNumber(productID)
	if !ok {
		return nil, false
	}
	p, ok := idx.ByID[n]
	return p, ok
}

// Size returns the number of distinct product ids
func (idx *Index) Size() int {
	if idx == nil {
		return 0
	}
	return len(idx.ByID)
}

// IDs returns the indexed ids in ascending order
func (idx *Index) IDs() []int {
	if idx == nil {
		return nil
	}
	ids := make([]int, 0, len(idx.ByID))
	for id := range idx.ByID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
