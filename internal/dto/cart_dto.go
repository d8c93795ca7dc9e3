package dto

// AddCartItemRequest adds units of a product. Quantity is range-checked by
// the service so a non-positive value surfaces as invalid_quantity.
type AddCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"`
}

// ScanRequest adds a product by barcode, as the scanner does.
type ScanRequest struct {
	Barcode  string `json:"barcode"  validate:"required,max=20"`
	Quantity int    `json:"quantity"`
}

// UpdateCartItemRequest replaces a line's quantity; zero or less removes it.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}
