package entity

// ProductVariant representa una variante de producto (SKU) trasladable entre tiendas.
// Solo lectura: el catálogo vive en otro subsistema.
type ProductVariant struct {
	ID               string
	OrganizationID   string
	ProductID        string
	ProductName      string
	ProductReference string
	Name             string
	SKU              string
}
