package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooksGarbled(t *testing.T) {
	cases := []struct {
		text    string
		garbled bool
	}{
		{"", true},
		{"ab", true},                  // fewer than 4 letters
		{"a1!", true},                 // short and noisy
		{"@@@###$$$ ab", true},        // readable ratio below 70%
		{"Karachi Steakhouse", false},
		{"Cafe Lounge", false},
		{"Shop123", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.garbled, LooksGarbled(tc.text), "text: %q", tc.text)
	}
}

func TestLooksGarbledLetterFloor(t *testing.T) {
	// Any string with fewer than 4 alphabetic characters is garbled.
	assert.True(t, LooksGarbled("abc"))
	assert.True(t, LooksGarbled("a b c"))
	assert.True(t, LooksGarbled("123456"))
	assert.False(t, LooksGarbled("abcd"))
}

func TestSanitizeMerchantName(t *testing.T) {
	assert.Equal(t, "Steakhouse", SanitizeMerchantName("Karachi Steakhouse", "HBL"))
	assert.Equal(t, "Gloria Jeans", SanitizeMerchantName("Gloria Jeans with HBL Credit Card", "HBL"))
	assert.Equal(t, "Chase Value", SanitizeMerchantName("Chase Value 20 discount", "Meezan Bank"))
	assert.Equal(t, "", SanitizeMerchantName("HBL Credit Card", "HBL"))
}

func TestIsValidMerchantRejections(t *testing.T) {
	assert.False(t, IsValidMerchant("", "HBL"))
	assert.False(t, IsValidMerchant("ab", "HBL"))
	assert.False(t, IsValidMerchant("Get more from every purchase you make today", "HBL"))
	assert.False(t, IsValidMerchant("Enjoy Dining", "HBL"))         // generic first word
	assert.False(t, IsValidMerchant("lowercase only words", "HBL")) // no capitalized word
	assert.False(t, IsValidMerchant("HBL Rewards", "HBL"))          // contains bank name
	assert.False(t, IsValidMerchant("Platinum Card", "HBL"))        // card jargon
	assert.False(t, IsValidMerchant("Personal Loan Facility", "HBL"))
	assert.True(t, IsValidMerchant("Gloria Jeans", "HBL"))
}

func TestExtractMerchantNameCascade(t *testing.T) {
	assert.Equal(t, "Steakhouse", ExtractMerchantName("Karachi Steakhouse - 20% off", "HBL"))
	assert.Equal(t, "Sana Safinaz", ExtractMerchantName("Sana Safinaz | discount on lawn", "Meezan Bank"))
	assert.Equal(t, "Broadway Pizza", ExtractMerchantName("15% off at Broadway Pizza", "UBL"))
	assert.Equal(t, "Shoe Planet", ExtractMerchantName("merchant: Shoe Planet", "UBL"))
	assert.Equal(t, "", ExtractMerchantName("Get 20% cashback on all spending categories", "UBL"))
}

func TestGuessCity(t *testing.T) {
	assert.Equal(t, "Lahore", GuessCity("great deals in lahore this week"))
	assert.Equal(t, "Karachi", GuessCity("no city mentioned"))
	assert.Equal(t, "Islamabad", GuessCity("Islamabad branch only"))
}

func TestGuessCategory(t *testing.T) {
	assert.Equal(t, "Food", GuessCategory("coffee lounge"))
	assert.Equal(t, "Food", GuessCategory("Karachi Steakhouse deal"))
	assert.Equal(t, "Travel", GuessCategory("flight bookings"))
	assert.Equal(t, "Grocery", GuessCategory("Imtiaz supermarket"))
	assert.Equal(t, "Medical", GuessCategory("pharmacy discount"))
	assert.Equal(t, "Retail", GuessCategory("something else"))
}

func TestParseCardType(t *testing.T) {
	cardType, tier := ParseCardType("HBL Gold Credit Card")
	assert.Equal(t, "Credit", cardType)
	assert.Equal(t, "Gold", tier)

	cardType, tier = ParseCardType("debit card holders")
	assert.Equal(t, "Debit", cardType)
	assert.Equal(t, "Basic", tier)

	cardType, tier = ParseCardType("infinite privileges")
	assert.Equal(t, "Debit", cardType)
	assert.Equal(t, "Infinite", tier)
}

func TestCardLabelCollapsesDuplicateCard(t *testing.T) {
	assert.Equal(t, "HBL Gold Credit Card", CardLabel("HBL", "Gold", "Credit"))
	assert.Equal(t, "UBL Basic Debit Card", CardLabel("UBL", "Basic", "Debit"))
}

func TestFromTextScenario(t *testing.T) {
	line := "Karachi Steakhouse - 20% off with HBL Gold Credit Card, valid until December 31, 2025"
	deals := FromText(line, "HBL")
	require.Len(t, deals, 1)

	d := deals[0]
	assert.Equal(t, "Steakhouse", d.MerchantName)
	assert.Equal(t, "Karachi", d.City)
	assert.Equal(t, "Food", d.Category)
	assert.Equal(t, 20.0, d.DiscountPercent)
	assert.Equal(t, "Credit", d.CardType)
	assert.Equal(t, "Gold", d.CardTier)
	assert.Equal(t, "HBL Gold Credit Card", d.CardName)
	require.NotNil(t, d.ValidTo)
	assert.Equal(t, time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC), *d.ValidTo)
	assert.Nil(t, d.ValidFrom)
}

func TestFromTextSkipsNoiseLines(t *testing.T) {
	text := strings.Join([]string{
		"Welcome to our discounts page",
		"0% markup on balance transfer",
		"Terms and conditions apply",
		"Broadway Pizza - 25% off with UBL Platinum Credit Card",
	}, "\n")
	deals := FromText(text, "UBL")
	require.Len(t, deals, 1)
	assert.Equal(t, "Broadway Pizza", deals[0].MerchantName)
	assert.Equal(t, 25.0, deals[0].DiscountPercent)
	assert.Equal(t, "Platinum", deals[0].CardTier)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 300))
	assert.Equal(t, strings.Repeat("x", 300), Truncate(strings.Repeat("x", 400), 300))
}
