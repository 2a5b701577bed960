package models

// ProductRecord is one product card extracted from a catalog listing page.
// Field contents are the text as rendered; nothing is normalised.
type ProductRecord struct {
	Price string `json:"price"`
	Title string `json:"title"`
	Image string `json:"image"`
	Brand string `json:"brand"`
	Sizes string `json:"sizes"`
}

// CatalogResult is the aggregate of every traversed category.
type CatalogResult struct {
	// Brands holds the distinct brand values of ProductList in
	// first-occurrence order.
	Brands []string `json:"brands"`

	// ProductList is the concatenation of all category results in
	// category-processing order.
	ProductList []ProductRecord `json:"productList"`
}
