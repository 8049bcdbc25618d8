package denom

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vitos/injective_dashboard/internal/domain"
)

// wellKnown maps exact denom strings to their verified identity. Entries
// here take priority over every structural fallback.
var wellKnown = map[string]domain.DenomMeta{
	"inj": {Symbol: "INJ", Name: "Injective", Decimals: 18},
	"peggy0xdAC17F958D2ee523a2206206994597C13D831ec7": {Symbol: "USDT", Name: "Tether USD", Decimals: 6},
	"peggy0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48": {Symbol: "USDC", Name: "USD Coin", Decimals: 6},
	"peggy0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2": {Symbol: "WETH", Name: "Wrapped Ether", Decimals: 18},
	"peggy0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599": {Symbol: "WBTC", Name: "Wrapped Bitcoin", Decimals: 8},
	"ibc/C4CFF46FD6DE35CA4CF4CE031E643C8FDC9BA4B99AE598E9B0ED98FE3A2319F9": {Symbol: "ATOM", Name: "Cosmos Hub", Decimals: 6},
	"factory/inj1hdvy6tl89llqy3ze8lv6mz5qh66sx9enn0jxg6/inj12sqy9uzzl3h3vqxam7sz9f0yvmhampcgzjc462": {Symbol: "AUSD", Name: "Agora USD", Decimals: 6},
}

// Resolver maps opaque denom strings to symbol/name/decimals. Resolution
// is total: every input yields a usable identity.
type Resolver struct {
	static map[string]domain.DenomMeta
}

func NewResolver() *Resolver {
	return &Resolver{static: wellKnown}
}

// Resolve applies the fallback chain: exact table match, then the
// factory/peggy/ibc structural patterns, then a generic default. The
// order matters: specific identity beats structural shape beats default,
// and two distinct unknown denoms never collide unless their prefixes
// genuinely match.
func (r *Resolver) Resolve(d string) domain.DenomMeta {
	if meta, ok := r.static[d]; ok {
		return meta
	}

	if parts := strings.Split(d, "/"); len(parts) >= 3 && parts[0] == "factory" {
		label := parts[len(parts)-1]
		return domain.DenomMeta{
			Symbol:   strings.ToUpper(label),
			Name:     label,
			Decimals: 18,
		}
	}

	if addr, ok := strings.CutPrefix(d, "peggy"); ok && strings.HasPrefix(addr, "0x") {
		hex := addr[2:]
		return domain.DenomMeta{
			Symbol:   "ERC20-" + prefix(hex, 6),
			Name:     fmt.Sprintf("Peggy ERC20 %s", prefix(hex, 10)),
			Decimals: 18,
		}
	}

	if hash, ok := strings.CutPrefix(d, "ibc/"); ok && hash != "" {
		return domain.DenomMeta{
			Symbol:   "IBC-" + prefix(hash, 6),
			Name:     fmt.Sprintf("IBC %s", prefix(hash, 10)),
			Decimals: 6,
		}
	}

	return domain.DenomMeta{
		Symbol:   strings.ToUpper(d),
		Name:     d,
		Decimals: 18,
	}
}

// KnownDenoms returns the static table keys in stable order, so the token
// registry can seed identity for assets that never appear in a market.
func (r *Resolver) KnownDenoms() []string {
	denoms := make([]string, 0, len(r.static))
	for d := range r.static {
		denoms = append(denoms, d)
	}
	sort.Strings(denoms)
	return denoms
}

func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
