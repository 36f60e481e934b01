package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/upsidefi/metaswap/internal/domain"
)

func TestCanonicalURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "https://example.com/article", "https://example.com/article"},
		{"uppercase host", "https://Example.COM/article", "https://example.com/article"},
		{"trailing slash", "https://example.com/article/", "https://example.com/article"},
		{"fragment dropped", "https://example.com/article#section-2", "https://example.com/article"},
		{"whitespace", "  https://example.com/article  ", "https://example.com/article"},
		{"query preserved", "https://example.com/a?id=7", "https://example.com/a?id=7"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CanonicalURL(tc.in)
			if err != nil {
				t.Fatalf("CanonicalURL(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("CanonicalURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCanonicalURLRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "not a url", "ftp://example.com/x", "example.com/no-scheme"} {
		if _, err := CanonicalURL(in); !errors.Is(err, domain.ErrInvalidURL) {
			t.Errorf("CanonicalURL(%q): expected ErrInvalidURL, got %v", in, err)
		}
	}
}

// Equivalent spellings of one page must canonicalize identically, otherwise
// the one-market-per-URL guarantee silently splits liquidity.
func TestCanonicalURLCollapsesVariants(t *testing.T) {
	variants := []string{
		"https://news.site.com/story/42",
		"https://NEWS.site.com/story/42/",
		"https://news.site.com/story/42#comments",
	}
	first, err := CanonicalURL(variants[0])
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range variants[1:] {
		got, err := CanonicalURL(v)
		if err != nil {
			t.Fatalf("CanonicalURL(%q): %v", v, err)
		}
		if got != first {
			t.Errorf("variant %q canonicalized to %q, want %q", v, got, first)
		}
	}
}

func TestTokenSymbol(t *testing.T) {
	sym := tokenSymbol("https://www.example.com/article")
	if !strings.HasPrefix(sym, "mEXAMPLE-") {
		t.Errorf("tokenSymbol = %q, want mEXAMPLE- prefix", sym)
	}

	// Long hosts truncate to keep symbols displayable.
	sym = tokenSymbol("https://absurdlylongdomainname.io/x")
	parts := strings.SplitN(strings.TrimPrefix(sym, "m"), "-", 2)
	if len(parts[0]) > 8 {
		t.Errorf("host part %q exceeds 8 chars", parts[0])
	}

	// Two markets on the same host must never share a symbol.
	if tokenSymbol("https://example.com/a") == tokenSymbol("https://example.com/b") {
		t.Error("symbols collided for distinct URLs")
	}
}

// Market timestamps come from the service clock, so the fee decay window of
// a fresh market is deterministic under an injected clock.
func TestNewMarketUsesServiceClock(t *testing.T) {
	seed := decimal.NewFromInt(700_000_000)
	supply := decimal.NewFromInt(1_000_000_000_000)
	svc := NewRegistryService(nil, nil, nil, NewFeeState(nil, testFees()),
		"USDC", seed, supply, decimal.Zero)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	m := svc.newMarket("acct:deployer", "https://example.com/article")
	if !m.CreatedAt.Equal(base) || !m.UpdatedAt.Equal(base) {
		t.Errorf("timestamps = %v/%v, want injected clock %v", m.CreatedAt, m.UpdatedAt, base)
	}
	if !m.UsdcReserve.Equal(seed) || !m.ReserveSeed.Equal(seed) {
		t.Errorf("reference reserve = %s (seed %s), want %s", m.UsdcReserve, m.ReserveSeed, seed)
	}
	if !m.TokenReserve.Equal(supply) {
		t.Errorf("token reserve = %s, want full supply %s", m.TokenReserve, supply)
	}
	if m.DeployerAccount != "acct:deployer" {
		t.Errorf("deployer = %q, want the tokenizing account", m.DeployerAccount)
	}

	// A fresh market quotes the starting fee at its own creation instant.
	fees := testFees()
	if got := fees.ComputeTimeFee(m.CreatedAt, base); got != fees.SwapFeeStartingBp {
		t.Errorf("fee at creation = %d bp, want starting %d bp", got, fees.SwapFeeStartingBp)
	}
}
