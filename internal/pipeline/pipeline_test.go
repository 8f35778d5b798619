package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mzohaib/bankdealworker/internal/deal"
	"mzohaib/bankdealworker/services/semantic"
	"mzohaib/bankdealworker/services/state"
	"mzohaib/bankdealworker/services/store"
)

type fakeScraper struct {
	dealsBySource map[string][]deal.ScrapedDeal
	calls         int
}

func (f *fakeScraper) ScrapeSource(ctx context.Context, src deal.BankSource) []deal.ScrapedDeal {
	f.calls++
	return f.dealsBySource[src.Name]
}

type capturePublisher struct {
	calls   int
	offers  []deal.Offer
	trimmed bool
}

func (p *capturePublisher) PublishOffers(bank string, offers []deal.Offer) error {
	p.calls++
	p.offers = append(p.offers, offers...)
	return nil
}

func (p *capturePublisher) TrimStreams() error {
	p.trimmed = true
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func expiredDate() *time.Time {
	d := time.Now().AddDate(0, 0, -30)
	return &d
}

func testDeal(merchant string) deal.ScrapedDeal {
	return deal.ScrapedDeal{
		MerchantName:    merchant,
		City:            "Karachi",
		Category:        "Food",
		DiscountPercent: 20,
		CardName:        "HBL Gold Credit Card",
		CardTier:        "Gold",
		CardType:        "Credit",
		Conditions:      "20% off dine-in",
	}
}

func newTestPipeline(t *testing.T, scraped map[string][]deal.ScrapedDeal, sources []deal.BankSource) (*Pipeline, *fakeScraper) {
	t.Helper()
	st, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	dir := t.TempDir()
	index := semantic.NewIndex(filepath.Join(dir, "index.json"), filepath.Join(dir, "meta.json"))

	scraper := &fakeScraper{dealsBySource: scraped}
	return New(scraper, st, state.NewGate(), index, nil, sources), scraper
}

func TestRunFullScrapeEndToEnd(t *testing.T) {
	sources := []deal.BankSource{{Name: "HBL"}, {Name: "UBL"}}
	stale := testDeal("Cafe Zouk")
	stale.ValidTo = expiredDate()

	p, scraper := newTestPipeline(t, map[string][]deal.ScrapedDeal{
		"HBL": {testDeal("Broadway Pizza"), stale},
		"UBL": {},
	}, sources)

	inserted, err := p.RunFullScrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Equal(t, 2, scraper.calls)

	last := p.LastRun()
	assert.Equal(t, 2, last.Inserted)
	assert.Equal(t, 1, last.Expired)

	// The expired discount is gone and the index only holds the live offer.
	offers, err := p.Offers(context.Background(), store.Filter{}, "")
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "Broadway Pizza", offers[0].Merchant)

	results, err := p.SemanticSearch("pizza karachi", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Broadway Pizza", results[0].Offer.Merchant)
}

func TestPublishOnlyNewlyInserted(t *testing.T) {
	// The batch repeats one deal and carries a garbled record; only the two
	// rows that actually land in the store may reach the stream.
	garbled := testDeal("@@##!!")
	p, _ := newTestPipeline(t, map[string][]deal.ScrapedDeal{
		"HBL": {testDeal("Broadway Pizza"), testDeal("Broadway Pizza"), testDeal("Chai Wala"), garbled},
	}, []deal.BankSource{{Name: "HBL"}})

	pub := &capturePublisher{}
	p.pub = pub

	_, err := p.RunFullScrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, pub.calls)
	require.Len(t, pub.offers, 2)
	assert.Equal(t, "Broadway Pizza", pub.offers[0].Merchant)
	assert.Equal(t, "Chai Wala", pub.offers[1].Merchant)
	assert.True(t, pub.trimmed)

	// A re-run inserts nothing, so nothing more is published.
	_, err = p.RunFullScrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, pub.calls)
	assert.Len(t, pub.offers, 2)
}

func TestRunFullScrapeMutualExclusion(t *testing.T) {
	p, _ := newTestPipeline(t, nil, nil)

	require.True(t, p.gate.Begin())
	_, err := p.RunFullScrape(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)
	p.gate.End(0, 0)

	_, err = p.RunFullScrape(context.Background())
	assert.NoError(t, err)
}

func TestMaintenanceVisibleDuringRun(t *testing.T) {
	p, _ := newTestPipeline(t, nil, nil)

	active, _ := p.IsMaintenance()
	assert.False(t, active)

	p.gate.Begin()
	active, msg := p.IsMaintenance()
	assert.True(t, active)
	assert.Equal(t, state.MaintenanceMessage, msg)
}

func TestOffersSemanticFallback(t *testing.T) {
	p, _ := newTestPipeline(t, map[string][]deal.ScrapedDeal{
		"HBL": {testDeal("Broadway Pizza")},
	}, []deal.BankSource{{Name: "HBL"}})
	_, err := p.RunFullScrape(context.Background())
	require.NoError(t, err)

	// A filter nothing matches, plus an intent: the semantic index answers.
	offers, err := p.Offers(context.Background(), store.Filter{City: "Quetta", Limit: 5}, "pizza")
	require.NoError(t, err)
	require.NotEmpty(t, offers)
	assert.Equal(t, "Broadway Pizza", offers[0].Merchant)

	// No intent means no fallback.
	offers, err = p.Offers(context.Background(), store.Filter{City: "Quetta"}, "")
	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestRankCards(t *testing.T) {
	gold := testDeal("Broadway Pizza")
	basic := testDeal("Chai Wala")
	basic.CardName = "HBL Basic Debit Card"
	basic.CardTier = "Basic"
	basic.CardType = "Debit"
	basic.DiscountPercent = 5

	p, _ := newTestPipeline(t, map[string][]deal.ScrapedDeal{
		"HBL": {gold, basic},
	}, []deal.BankSource{{Name: "HBL"}})
	_, err := p.RunFullScrape(context.Background())
	require.NoError(t, err)

	cards, err := p.RankCards(context.Background())
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "HBL Gold Credit Card", cards[0].CardName)
	assert.Greater(t, cards[0].Score, cards[1].Score)
}

func TestAnalyticsAfterRun(t *testing.T) {
	p, _ := newTestPipeline(t, map[string][]deal.ScrapedDeal{
		"HBL": {testDeal("Broadway Pizza")},
	}, []deal.BankSource{{Name: "HBL"}})
	_, err := p.RunFullScrape(context.Background())
	require.NoError(t, err)

	a, err := p.Analytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, a.Banks)
	assert.Equal(t, 1, a.Discounts)
}
