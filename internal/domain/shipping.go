package domain

type ShippingQuery struct {
	AccessToken    string
	SellerID       string
	ReferencePrice float64
	Tier           Tier
	CategoryID     string
	Dimensions     *Dimensions
	OriginZip      string
	Subsidized     bool
}

// ShippingEstimate is the seller-borne side of a free-shipping offer.
// Applicable is false when the platform reported no subsidy for the item.
type ShippingEstimate struct {
	Cost           float64
	ListCost       float64
	PromotedAmount float64
	DiscountRate   float64
	Applicable     bool
}
