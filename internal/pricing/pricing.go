package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/serenadecraft/serenade-backend/pkg/config"
	pkgerrors "github.com/serenadecraft/serenade-backend/pkg/errors"
)

// Selection captures the add-ons chosen on the commission form.
type Selection struct {
	CoverImage  bool
	SecondSong  bool
	SecondCover bool
}

// Line is one priced component of a quote.
type Line struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Quote is the server-side price for a selection. The stored order amount
// must equal Total; client-submitted prices are never trusted.
type Quote struct {
	Total decimal.Decimal `json:"total"`
	Lines []Line          `json:"lines"`
}

// Calculator prices commissions from configured component prices.
type Calculator struct {
	base        decimal.Decimal
	coverImage  decimal.Decimal
	secondSong  decimal.Decimal
	secondCover decimal.Decimal
}

// NewCalculator parses the configured price strings once at startup.
func NewCalculator(cfg config.PricingConfig) (*Calculator, error) {
	base, err := parsePrice("base price", cfg.BasePrice)
	if err != nil {
		return nil, err
	}
	cover, err := parsePrice("cover image price", cfg.CoverImagePrice)
	if err != nil {
		return nil, err
	}
	second, err := parsePrice("second song price", cfg.SecondSongPrice)
	if err != nil {
		return nil, err
	}
	secondCover, err := parsePrice("second cover price", cfg.SecondCoverPrice)
	if err != nil {
		return nil, err
	}
	return &Calculator{
		base:        base,
		coverImage:  cover,
		secondSong:  second,
		secondCover: secondCover,
	}, nil
}

func parsePrice(name, raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s %q: %w", name, raw, err)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", name)
	}
	return price, nil
}

// Quote prices the selection. The second cover add-on is only sellable
// alongside the second song; a selection violating that is rejected rather
// than silently repriced.
func (c *Calculator) Quote(sel Selection) (Quote, error) {
	if sel.SecondCover && !sel.SecondSong {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "second cover image requires the second song add-on")
	}

	lines := []Line{{Label: "custom song", Amount: c.base}}
	total := c.base

	if sel.CoverImage {
		lines = append(lines, Line{Label: "cover image", Amount: c.coverImage})
		total = total.Add(c.coverImage)
	}
	if sel.SecondSong {
		lines = append(lines, Line{Label: "second song version", Amount: c.secondSong})
		total = total.Add(c.secondSong)
	}
	if sel.SecondCover {
		lines = append(lines, Line{Label: "second cover image", Amount: c.secondCover})
		total = total.Add(c.secondCover)
	}

	return Quote{Total: total, Lines: lines}, nil
}
