package rank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mzohaib/bankdealworker/internal/deal"
)

var now = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

func dayPtr(days int) *time.Time {
	d := now.AddDate(0, 0, days)
	return &d
}

func TestRankOffersAccessibleDebitBeatsExclusiveCredit(t *testing.T) {
	offers := []deal.Offer{
		{Merchant: "Chashni", DiscountPercent: 10, CardType: "Credit", CardTier: "Infinite", ValidTo: dayPtr(5)},
		{Merchant: "Broadway Pizza", DiscountPercent: 30, CardType: "Debit", CardTier: "Basic", ValidTo: dayPtr(90)},
	}
	ranked := RankOffers(offers, "", "", now)
	require.Len(t, ranked, 2)

	assert.Equal(t, "Broadway Pizza", ranked[0].Merchant)
	assert.Equal(t, 62.0, ranked[0].Score)
	assert.Equal(t, "Chashni", ranked[1].Merchant)
	assert.Equal(t, 41.5, ranked[1].Score)
}

func TestRankOffersIntentBoost(t *testing.T) {
	offers := []deal.Offer{
		{Merchant: "Sapphire", Category: "Fashion", DiscountPercent: 20, CardType: "Debit", Conditions: "20% off apparel"},
		{Merchant: "Broadway Pizza", Category: "Food", DiscountPercent: 20, CardType: "Debit", Conditions: "20% off pizza"},
	}
	ranked := RankOffers(offers, "", "pizza", now)
	assert.Equal(t, "Broadway Pizza", ranked[0].Merchant)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
}

func TestRankOffersCityProximity(t *testing.T) {
	offers := []deal.Offer{
		{Merchant: "Gloria Jeans", City: "Lahore", DiscountPercent: 20, CardType: "Debit"},
		{Merchant: "Chai Wala", City: "Karachi", DiscountPercent: 20, CardType: "Debit"},
	}
	ranked := RankOffers(offers, "Karachi", "", now)
	assert.Equal(t, "Chai Wala", ranked[0].Merchant)
}

func TestRankOffersPopularityFromCandidates(t *testing.T) {
	offers := []deal.Offer{
		{Merchant: "Broadway Pizza", DiscountPercent: 20, CardType: "Debit"},
		{Merchant: "Broadway Pizza", DiscountPercent: 20, CardType: "Debit", CardName: "other card"},
		{Merchant: "Chai Wala", DiscountPercent: 20, CardType: "Debit"},
	}
	ranked := RankOffers(offers, "", "", now)
	require.Len(t, ranked, 3)
	// Both Broadway Pizza rows outrank the single Chai Wala row.
	assert.Equal(t, "Chai Wala", ranked[2].Merchant)
}

func TestValidityWindowBoundaries(t *testing.T) {
	assert.Equal(t, 0.6, validityWindow(nil, now))
	assert.Equal(t, 1.0, validityWindow(dayPtr(60), now))
	assert.Equal(t, 0.8, validityWindow(dayPtr(59), now))
	assert.Equal(t, 0.8, validityWindow(dayPtr(30), now))
	assert.Equal(t, 0.6, validityWindow(dayPtr(7), now))
	assert.Equal(t, 0.4, validityWindow(dayPtr(6), now))
	assert.Equal(t, 0.4, validityWindow(dayPtr(-10), now))
}

func TestAccessibilityDebitOverridesTier(t *testing.T) {
	assert.Equal(t, 1.0, accessibility("Debit", "Infinite"))
	assert.Equal(t, 0.5, accessibility("Credit", "Infinite"))
	assert.Equal(t, 0.7, accessibility("Credit", "Gold")) // capped at the credit base
	assert.Equal(t, 0.7, accessibility("Credit", ""))
}

func TestLocationProximityDefaults(t *testing.T) {
	assert.Equal(t, 0.5, locationProximity("", "Karachi"))
	assert.Equal(t, 0.5, locationProximity("Karachi", ""))
	assert.Equal(t, 1.0, locationProximity("Karachi", "Karachi"))
	assert.GreaterOrEqual(t, locationProximity("Karachi", "Lahore"), 0.2)
}

func TestRankCardsNormalizesValue(t *testing.T) {
	stats := []deal.CardStats{
		{CardName: "HBL Gold Credit Card", TotalDiscountValue: 50, MerchantCoverage: 1.0, CityCoverage: 1.0},
		{CardName: "HBL Platinum Credit Card", TotalDiscountValue: 15, MerchantCoverage: 0.5, CityCoverage: 0.5},
	}
	ranked := RankCards(stats)
	require.Len(t, ranked, 2)

	assert.Equal(t, "HBL Gold Credit Card", ranked[0].CardName)
	assert.Equal(t, 100.0, ranked[0].Score)
	assert.Equal(t, 42.0, ranked[1].Score)
}

func TestRankCardsEmpty(t *testing.T) {
	assert.Empty(t, RankCards(nil))
	assert.Empty(t, RankOffers(nil, "Karachi", "pizza", now))
}
