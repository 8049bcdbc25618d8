package domain

// DenomMeta is resolved identity for a denom string. Entries are immutable
// for the lifetime of the process: static table hits never change and
// fallback-derived entries are pure functions of the denom string.
type DenomMeta struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
	Logo     string `json:"logo,omitempty"`
}

// Token is a denom enriched with a USD price. Recomputed on every token
// registry refresh.
type Token struct {
	Denom    string  `json:"denom"`
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Decimals int     `json:"decimals"`
	PriceUSD float64 `json:"price_usd"`
}
