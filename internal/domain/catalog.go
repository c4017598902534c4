package domain

// Category is a node in the catalogue taxonomy tree. ParentID is empty for
// root categories.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

// Tag is a flat catalogue label.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Product is the product-kind stem: a physical good sold on markets.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SKU         string   `json:"sku"`
	CategoryID  string   `json:"category_id"`
	TagIDs      []string `json:"tag_ids,omitempty"`
}

// Service is the service-kind stem. Structurally identical to Product but
// kept as a distinct type so listings can never confuse the two tables.
type Service struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SKU         string   `json:"sku"`
	CategoryID  string   `json:"category_id"`
	TagIDs      []string `json:"tag_ids,omitempty"`
}
