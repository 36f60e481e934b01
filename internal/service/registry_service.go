package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/upsidefi/metaswap/internal/domain"
	"github.com/upsidefi/metaswap/internal/repository"
)

// Announcer pushes new-market notifications to connected websocket clients.
type Announcer interface {
	AnnounceMarket(summary domain.MarketSummary)
}

// RegistryService mints one market per URL and answers lookups against the
// registry. Minting is first-come: whoever tokenizes a URL becomes its
// deployer and earns the deployer share of swap fees.
type RegistryService struct {
	db      *sqlx.DB
	markets *repository.MarketRepository
	ledger  *repository.LedgerRepository
	fees    *FeeState

	referenceAsset string
	reserveSeed    decimal.Decimal
	tokenSupply    decimal.Decimal
	tokenizeFee    decimal.Decimal

	announcer Announcer
	now       func() time.Time
}

// SetAnnouncer wires the websocket hub after construction.
func (s *RegistryService) SetAnnouncer(a Announcer) {
	s.announcer = a
}

// NewRegistryService creates a new RegistryService.
func NewRegistryService(
	db *sqlx.DB,
	markets *repository.MarketRepository,
	ledger *repository.LedgerRepository,
	fees *FeeState,
	referenceAsset string,
	reserveSeed, tokenSupply, tokenizeFee decimal.Decimal,
) *RegistryService {
	return &RegistryService{
		db:             db,
		markets:        markets,
		ledger:         ledger,
		fees:           fees,
		referenceAsset: referenceAsset,
		reserveSeed:    reserveSeed,
		tokenSupply:    tokenSupply,
		tokenizeFee:    tokenizeFee,
		now:            time.Now,
	}
}

// Tokenize mints a new market for a URL. The full token supply goes to the
// protocol reserve account, the reference-side reserve starts at the virtual
// seed, and the caller becomes the market's deployer. When the tokenize fee
// is enabled it is pulled from the deployer's approved reference balance
// before anything is minted.
func (s *RegistryService) Tokenize(ctx context.Context, deployer, rawURL string) (*domain.Market, error) {
	canonical, err := CanonicalURL(rawURL)
	if err != nil {
		return nil, err
	}

	fees := s.fees.Get()
	market := s.newMarket(deployer, canonical)

	// 1. Begin transaction
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("registry_service.Tokenize begin: %w", err)
	}
	defer tx.Rollback()

	// 2. Collect the tokenize fee, if enabled
	if fees.TokenizeFeeEnabled && s.tokenizeFee.IsPositive() {
		err = s.ledger.TransferFrom(ctx, tx, s.referenceAsset,
			deployer, domain.ProtocolReserveAccount, fees.TokenizeFeeDestination, s.tokenizeFee)
		if err != nil {
			return nil, err
		}
	}

	// 3. Insert the market; duplicate URL fails here
	if err = s.markets.Create(ctx, tx, market); err != nil {
		return nil, err
	}

	// 4. Mint the token supply to the protocol reserve
	if err = s.ledger.Mint(ctx, tx, market.TokenSymbol, domain.ProtocolReserveAccount, s.tokenSupply); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("registry_service.Tokenize commit: %w", err)
	}

	if s.announcer != nil {
		s.announcer.AnnounceMarket(market.ToSummary(fees, market.CreatedAt))
	}
	return market, nil
}

// newMarket builds the entity for a freshly tokenized URL: full token supply
// against the virtual reference seed, decay clock starting now.
func (s *RegistryService) newMarket(deployer, canonical string) *domain.Market {
	now := s.now()
	return &domain.Market{
		ID:              uuid.New(),
		URL:             canonical,
		TokenSymbol:     tokenSymbol(canonical),
		DeployerAccount: deployer,
		UsdcReserve:     s.reserveSeed,
		TokenReserve:    s.tokenSupply,
		ReserveSeed:     s.reserveSeed,
		DeployerFeeOwed: decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Get fetches a market by id.
func (s *RegistryService) Get(ctx context.Context, id uuid.UUID) (*domain.Market, error) {
	return s.markets.GetByID(ctx, id)
}

// Resolve fetches the market minted for a URL, canonicalizing it the same way
// Tokenize does.
func (s *RegistryService) Resolve(ctx context.Context, rawURL string) (*domain.Market, error) {
	canonical, err := CanonicalURL(rawURL)
	if err != nil {
		return nil, err
	}
	return s.markets.GetByURL(ctx, canonical)
}

// List returns market summaries newest-first, with fees computed at the
// current instant.
func (s *RegistryService) List(ctx context.Context, limit, offset int) ([]domain.MarketSummary, int, error) {
	markets, err := s.markets.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.markets.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	fees := s.fees.Get()
	now := s.now()
	summaries := make([]domain.MarketSummary, 0, len(markets))
	for i := range markets {
		summaries = append(summaries, markets[i].ToSummary(fees, now))
	}
	return summaries, total, nil
}

// CanonicalURL normalizes a URL so that each page maps to exactly one market:
// scheme and host lowercase, fragment dropped, trailing slash trimmed.
func CanonicalURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", domain.ErrInvalidURL
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String(), nil
}

// tokenSymbol derives a short display symbol from the canonical URL host plus
// a random suffix so collisions between pages on one host stay impossible.
func tokenSymbol(canonical string) string {
	u, _ := url.Parse(canonical)
	host := strings.TrimPrefix(u.Host, "www.")
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	host = strings.ToUpper(host)
	if len(host) > 8 {
		host = host[:8]
	}
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
	return "m" + host + "-" + suffix
}
