// Package rank scores offers for a user's city and intent, and scores cards
// by the breadth and value of their discount portfolio.
package rank

import (
	"math"
	"sort"
	"strings"
	"time"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"mzohaib/bankdealworker/internal/deal"
)

// cardAccessibility maps tiers to how easy the card is to obtain. Lower tiers
// reach more users and therefore score higher.
var cardAccessibility = map[string]float64{
	"debit":     1.0,
	"basic":     0.9,
	"classic":   0.85,
	"gold":      0.8,
	"platinum":  0.7,
	"signature": 0.6,
	"infinite":  0.5,
}

const (
	weightDiscount      = 0.35
	weightPopularity    = 0.15
	weightLocation      = 0.15
	weightAccessibility = 0.15
	weightValidity      = 0.10
	weightIntent        = 0.10
)

// RankedOffer is an offer with its composite score
type RankedOffer struct {
	deal.Offer
	Score float64 `json:"score"`
}

// RankedCard is a card aggregate with its composite score
type RankedCard struct {
	deal.CardStats
	Score float64 `json:"score"`
}

// RankOffers scores and sorts the candidate offers for one request. The
// candidate set itself defines merchant popularity: merchants appearing in
// more candidate offers rank as more popular.
func RankOffers(offers []deal.Offer, userCity, intent string, now time.Time) []RankedOffer {
	popularity := merchantPopularity(offers)

	ranked := make([]RankedOffer, 0, len(offers))
	for _, offer := range offers {
		score := weightDiscount*discountFactor(offer.DiscountPercent) +
			weightPopularity*popularity[offer.Merchant] +
			weightLocation*locationProximity(userCity, offer.City) +
			weightAccessibility*accessibility(offer.CardType, offer.CardTier) +
			weightValidity*validityWindow(offer.ValidTo, now) +
			weightIntent*intentMatch(intent, offer)
		ranked = append(ranked, RankedOffer{Offer: offer, Score: round2(100 * score)})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}

// RankCards scores card aggregates. Total discount value is normalized
// against the best card so the score stays comparable across corpus sizes.
func RankCards(stats []deal.CardStats) []RankedCard {
	var maxValue float64
	for _, st := range stats {
		if st.TotalDiscountValue > maxValue {
			maxValue = st.TotalDiscountValue
		}
	}

	ranked := make([]RankedCard, 0, len(stats))
	for _, st := range stats {
		valueScore := 0.0
		if maxValue > 0 {
			valueScore = st.TotalDiscountValue / maxValue
		}
		score := 0.4*valueScore + 0.35*st.MerchantCoverage + 0.25*st.CityCoverage
		ranked = append(ranked, RankedCard{CardStats: st, Score: round2(100 * score)})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}

func discountFactor(percent float64) float64 {
	return math.Min(percent/100, 1.0)
}

func merchantPopularity(offers []deal.Offer) map[string]float64 {
	counts := map[string]float64{}
	maxCount := 0.0
	for _, offer := range offers {
		counts[offer.Merchant]++
		if counts[offer.Merchant] > maxCount {
			maxCount = counts[offer.Merchant]
		}
	}
	scores := make(map[string]float64, len(counts))
	for merchant, count := range counts {
		scores[merchant] = count / maxCount
	}
	return scores
}

func locationProximity(userCity, merchantCity string) float64 {
	if userCity == "" || merchantCity == "" {
		return 0.5
	}
	score := float64(fuzzy.PartialRatio(strings.ToLower(userCity), strings.ToLower(merchantCity))) / 100
	return math.Max(0.2, score)
}

// accessibility: debit cards are universally reachable regardless of tier;
// credit cards degrade with tier exclusivity.
func accessibility(cardType, tier string) float64 {
	if strings.EqualFold(cardType, "debit") {
		return 1.0
	}
	score := 0.7
	if tierScore, ok := cardAccessibility[strings.ToLower(tier)]; ok && tierScore < score {
		score = tierScore
	}
	return score
}

func validityWindow(validTo *time.Time, now time.Time) float64 {
	if validTo == nil {
		return 0.6
	}
	remaining := int(validTo.Sub(now).Hours() / 24)
	if remaining < 0 {
		remaining = 0
	}
	switch {
	case remaining >= 60:
		return 1.0
	case remaining >= 30:
		return 0.8
	case remaining >= 7:
		return 0.6
	default:
		return 0.4
	}
}

func intentMatch(intent string, offer deal.Offer) float64 {
	if intent == "" {
		return 0.4
	}
	text := strings.ToLower(offer.Merchant + " " + offer.Category + " " + offer.Conditions)
	score := float64(fuzzy.TokenSetRatio(strings.ToLower(intent), text)) / 100
	return math.Max(0.3, score)
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
