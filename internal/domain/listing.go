package domain

// ListingKind names a legacy listing table that carries a space reference
type ListingKind string

const (
	ListingProduct ListingKind = "product"
	ListingService ListingKind = "service"
)

// ListingKinds lists every kind the bootstrap routine reattaches
var ListingKinds = []ListingKind{ListingProduct, ListingService}
