package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serenadecraft/serenade-backend/pkg/config"
	pkgerrors "github.com/serenadecraft/serenade-backend/pkg/errors"
)

func testConfig() config.PricingConfig {
	return config.PricingConfig{
		BasePrice:        "29.99",
		CoverImagePrice:  "5.00",
		SecondSongPrice:  "15.00",
		SecondCoverPrice: "5.00",
	}
}

func TestQuoteTotals(t *testing.T) {
	calc, err := NewCalculator(testConfig())
	require.NoError(t, err)

	cases := []struct {
		name      string
		selection Selection
		total     string
		lines     int
	}{
		{"base only", Selection{}, "29.99", 1},
		{"with cover", Selection{CoverImage: true}, "34.99", 2},
		{"with second song", Selection{SecondSong: true}, "44.99", 2},
		{"second song and cover", Selection{CoverImage: true, SecondSong: true}, "49.99", 3},
		{"everything", Selection{CoverImage: true, SecondSong: true, SecondCover: true}, "54.99", 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			quote, err := calc.Quote(tc.selection)
			require.NoError(t, err)
			assert.Equal(t, tc.total, quote.Total.StringFixed(2))
			assert.Len(t, quote.Lines, tc.lines)

			sum := quote.Lines[0].Amount
			for _, line := range quote.Lines[1:] {
				sum = sum.Add(line.Amount)
			}
			assert.True(t, sum.Equal(quote.Total), "lines must sum to total")
		})
	}
}

func TestQuoteRejectsOrphanSecondCover(t *testing.T) {
	calc, err := NewCalculator(testConfig())
	require.NoError(t, err)

	_, err = calc.Quote(Selection{SecondCover: true})
	require.Error(t, err)

	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	_, err = calc.Quote(Selection{CoverImage: true, SecondCover: true})
	require.Error(t, err)
}

func TestNewCalculatorRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.BasePrice = "not-a-number"
	_, err := NewCalculator(cfg)
	require.Error(t, err)

	cfg = testConfig()
	cfg.SecondSongPrice = "-1.00"
	_, err = NewCalculator(cfg)
	require.Error(t, err)
}
