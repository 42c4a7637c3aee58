package domain

type AccountQuote struct {
	Nickname     Nickname
	ShippingMode ShippingMode
	Shipping     ShippingEstimate
	Tiers        map[Tier]TierQuote
	Err          error
}

func (q AccountQuote) Tier(tier Tier) (TierQuote, bool) {
	quote, ok := q.Tiers[tier]
	return quote, ok
}

type BatchQuote struct {
	RequestID string
	Accounts  []AccountQuote
	Conflicts []Nickname
}

func (b BatchQuote) Lookup(nickname Nickname) (AccountQuote, bool) {
	for _, quote := range b.Accounts {
		if quote.Nickname == nickname {
			return quote, true
		}
	}
	return AccountQuote{}, false
}
