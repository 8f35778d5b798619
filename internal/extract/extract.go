// Package extract turns unstructured page/PDF text into structured deal
// records. Scraped marketing copy is highly irregular, so the merchant
// cascade is tuned to reject boilerplate rather than to maximize recall: a
// missed deal is preferable to a garbage merchant row.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"mzohaib/bankdealworker/helpers"
	"mzohaib/bankdealworker/internal/deal"
	"mzohaib/bankdealworker/internal/normalize"
)

// merchantPattern is one step of the extraction cascade. Patterns are tried
// in order and the first match surviving sanitization wins.
type merchantPattern struct {
	name string
	re   *regexp.Regexp
}

var merchantPatterns = []merchantPattern{
	{"name-before-percent", regexp.MustCompile(`(?i)^(?P<name>.+?)\s*(?:-|–|—|\|)\s*(?:up to\s*)?\d{1,2}%`)},
	{"name-before-discount-keyword", regexp.MustCompile(`(?i)^(?P<name>.+?)\s*(?:-|–|—|\|)\s*(?:discount|cashback|off)\b`)},
	{"capitalized-name-before-percent", regexp.MustCompile(`^(?P<name>[A-Z][A-Za-z0-9&'’\-\.\s]{2,60})\s+(?:[Uu]p to\s*)?\d{1,2}%`)},
	{"percent-then-at-name", regexp.MustCompile(`(?i)^(?:up to\s*)?\d{1,2}%\s*(?:off\s*)?(?:at\s*)?(?P<name>.+)$`)},
	{"merchant-label", regexp.MustCompile(`(?i)\bmerchant\s*:\s*(?P<name>[A-Za-z0-9&'’\-\.\s]{3,})`)},
}

var (
	stopWordsRe      = regexp.MustCompile(`(?i)\b(with|using|via|when|till|until|valid|terms|conditions|offer|offers)\b`)
	noiseWordsRe     = regexp.MustCompile(`(?i)\b(discount|cashback|off|deal|deals|promo|promotion|campaign)\b`)
	cardWordsRe      = regexp.MustCompile(`(?i)\b(card|cards|credit|debit|visa|mastercard|amex)\b`)
	embeddedDigitsRe = regexp.MustCompile(`\b\d+(\.\d+)?\b`)
	jargonRe         = regexp.MustCompile(`(?i)\b(card|credit|debit|discount|cashback|offer|offers|deal|deals)\b`)
	genericPhrasesRe = regexp.MustCompile(`(?i)\b(loan|facility|security|bank|account|credit|debit|card|discounts|offers|reward|balance|limit|statement|spending|categories|lifestyle)\b`)
	nonWordRe        = regexp.MustCompile(`\W+`)
	letterRe         = regexp.MustCompile(`[A-Za-z]`)
	digitRe          = regexp.MustCompile(`\d`)
	upToTailRe       = regexp.MustCompile(`(?i)\b(up|upto|up to)\b.*`)
)

// genericPrefixes are filler first words that mark marketing copy rather
// than a merchant name.
var genericPrefixes = map[string]struct{}{
	"get": {}, "enjoy": {}, "now": {}, "cash": {}, "withdraw": {},
	"avail": {}, "exclusive": {}, "dining": {}, "your": {}, "a": {},
	"an": {}, "up": {}, "save": {}, "profit": {}, "rate": {}, "earn": {},
	"pay": {}, "from": {}, "the": {}, "ranging": {}, "over": {},
}

// cardTiers is ordered most to least specific; the first substring hit wins.
var cardTiers = []struct {
	key  string
	tier string
}{
	{"infinite", "Infinite"},
	{"signature", "Signature"},
	{"platinum", "Platinum"},
	{"gold", "Gold"},
	{"classic", "Classic"},
	{"basic", "Basic"},
}

var categoryBuckets = []struct {
	category string
	words    []string
}{
	{"Food", []string{"restaurant", "dining", "cafe", "coffee", "food", "steakhouse", "bakery", "grill", "eatery"}},
	{"Travel", []string{"travel", "flight", "hotel"}},
	{"Fashion", []string{"fashion", "clothing", "apparel"}},
	{"Grocery", []string{"grocery", "mart", "supermarket"}},
	{"Electronics", []string{"electronics", "gadgets"}},
	{"Medical", []string{"health", "medical", "pharmacy"}},
}

var cityPatterns = buildCityPatterns()

func buildCityPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(normalize.KnownCities))
	for _, city := range normalize.KnownCities {
		patterns[city] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(city) + `\b`)
	}
	return patterns
}

// LooksGarbled reports whether text fails the letters/digits density
// heuristic: fewer than 4 letters, or letters+digits below 70% of the
// non-whitespace characters.
func LooksGarbled(text string) bool {
	cleaned := helpers.CleanText(text)
	if cleaned == "" {
		return true
	}
	letters := len(letterRe.FindAllString(cleaned, -1))
	digits := len(digitRe.FindAllString(cleaned, -1))
	total := len([]rune(strings.ReplaceAll(cleaned, " ", "")))
	if total == 0 {
		return true
	}
	readable := float64(letters+digits) / float64(total)
	return letters < 4 || readable < 0.7
}

// SanitizeMerchantName strips bank tokens, city names, card keywords,
// embedded digits and trailing noise from a raw merchant candidate.
func SanitizeMerchantName(name, bankName string) string {
	cleaned := helpers.CleanText(name)
	if cleaned == "" {
		return ""
	}

	if loc := stopWordsRe.FindStringIndex(cleaned); loc != nil {
		cleaned = cleaned[:loc[0]]
	}
	cleaned = noiseWordsRe.ReplaceAllString(cleaned, "")
	cleaned = cardWordsRe.ReplaceAllString(cleaned, "")
	cleaned = embeddedDigitsRe.ReplaceAllString(cleaned, "")
	cleaned = strings.Trim(helpers.CleanText(cleaned), " -|,.;")

	for _, token := range nonWordRe.Split(strings.ToLower(bankName), -1) {
		if token == "" {
			continue
		}
		tokenRe := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(token) + `\b`)
		cleaned = tokenRe.ReplaceAllString(cleaned, "")
	}
	for _, re := range cityPatterns {
		cleaned = re.ReplaceAllString(cleaned, "")
	}

	return strings.Trim(helpers.CleanText(cleaned), " -|,.;")
}

// IsValidMerchant applies the acceptance rule: a conjunction of heuristics
// rejecting short, generic, garbled or bank-jargon names.
func IsValidMerchant(name, bankName string) bool {
	cleaned := helpers.CleanText(name)
	if cleaned == "" || len(cleaned) < 3 {
		return false
	}
	words := strings.Fields(cleaned)
	if len(words) > 6 {
		return false
	}
	if _, generic := genericPrefixes[strings.ToLower(words[0])]; generic {
		return false
	}
	capitalized := false
	for _, word := range words {
		first := word[:1]
		if first != strings.ToLower(first) {
			capitalized = true
			break
		}
	}
	if !capitalized {
		return false
	}
	if LooksGarbled(cleaned) {
		return false
	}
	lower := strings.ToLower(cleaned)
	if bankName != "" && strings.Contains(lower, strings.ToLower(bankName)) {
		return false
	}
	if jargonRe.MatchString(lower) {
		return false
	}
	if genericPhrasesRe.MatchString(lower) {
		return false
	}
	return true
}

// ExtractMerchantName runs the pattern cascade over one cleaned line and
// returns the first sanitized name that passes validation, or "".
func ExtractMerchantName(line, bankName string) string {
	cleaned := helpers.CleanText(line)
	if cleaned == "" {
		return ""
	}

	for _, pattern := range merchantPatterns {
		m := pattern.re.FindStringSubmatch(cleaned)
		if m == nil {
			continue
		}
		raw := m[pattern.re.SubexpIndex("name")]
		name := SanitizeMerchantName(raw, bankName)
		if IsValidMerchant(name, bankName) {
			return name
		}
	}

	// Last resort: everything left of the first percent sign.
	if idx := strings.Index(cleaned, "%"); idx >= 0 {
		left := strings.TrimSpace(upToTailRe.ReplaceAllString(cleaned[:idx], ""))
		name := SanitizeMerchantName(left, bankName)
		if IsValidMerchant(name, bankName) {
			return name
		}
	}

	return ""
}

// GuessCity searches text for any known city, defaulting to Karachi.
func GuessCity(text string) string {
	for _, city := range normalize.KnownCities {
		if cityPatterns[city].MatchString(text) {
			return normalize.City(city)
		}
	}
	return "Karachi"
}

// GuessCategory classifies text into a category via keyword buckets,
// defaulting to Retail.
func GuessCategory(text string) string {
	lowered := strings.ToLower(text)
	for _, bucket := range categoryBuckets {
		for _, word := range bucket.words {
			if strings.Contains(lowered, word) {
				return normalize.Category(bucket.category)
			}
		}
	}
	return normalize.Category("Retail")
}

// ParseCardType guesses the card type and tier by substring match,
// defaulting to Debit/Basic.
func ParseCardType(text string) (cardType, tier string) {
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "credit"):
		cardType = "Credit"
	default:
		cardType = "Debit"
	}
	tier = "Basic"
	for _, entry := range cardTiers {
		if strings.Contains(lowered, entry.key) {
			tier = entry.tier
			break
		}
	}
	return cardType, tier
}

// CardLabel synthesizes the card name "<Bank> <Tier> <Type> Card" with a
// duplicated trailing "Card" collapsed.
func CardLabel(bankName, tier, cardType string) string {
	label := fmt.Sprintf("%s %s %s Card", bankName, tier, cardType)
	label = strings.Replace(label, " Card Card", " Card", 1)
	return strings.TrimSpace(label)
}

// Truncate limits conditions text to the stored maximum.
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

// FromText extracts deals from line-split page or PDF text for one bank.
// Only lines carrying a percent sign are considered.
func FromText(text, bankName string) []deal.ScrapedDeal {
	var deals []deal.ScrapedDeal
	for _, rawLine := range strings.Split(text, "\n") {
		line := helpers.CleanText(rawLine)
		if line == "" || !strings.Contains(line, "%") {
			continue
		}
		percent := helpers.ParseDiscountPercent(line)
		if percent <= 0 {
			continue
		}
		merchantName := ExtractMerchantName(line, bankName)
		if merchantName == "" {
			continue
		}
		cardType, tier := ParseCardType(line)
		validFrom, validTo := helpers.ParseValidity(line)
		deals = append(deals, deal.ScrapedDeal{
			MerchantName:    merchantName,
			City:            GuessCity(line),
			Category:        GuessCategory(line),
			DiscountPercent: percent,
			CardName:        CardLabel(bankName, tier, cardType),
			CardTier:        tier,
			CardType:        cardType,
			Conditions:      Truncate(line, 300),
			ValidFrom:       validFrom,
			ValidTo:         validTo,
		})
	}
	return deals
}
