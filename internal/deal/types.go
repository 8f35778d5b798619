package deal

import "time"

// BankSource describes one hand-curated bank source. Identity is the name.
type BankSource struct {
	Name       string `json:"name"`
	Website    string `json:"website"`
	BaseDomain string `json:"base_domain"`
	WidgetBase string `json:"widget_base,omitempty"`
}

// ScrapedDeal is one extracted offer before normalization into store entities.
// It is transient; only the upsert step consumes it.
type ScrapedDeal struct {
	MerchantName     string     `json:"merchant_name"`
	City             string     `json:"city"`
	Category         string     `json:"category"`
	MerchantImageURL string     `json:"merchant_image_url,omitempty"`
	DiscountPercent  float64    `json:"discount_percent"`
	CardName         string     `json:"card_name"`
	CardTier         string     `json:"card_tier"`
	CardType         string     `json:"card_type"`
	Conditions       string     `json:"conditions"`
	ValidFrom        *time.Time `json:"valid_from,omitempty"`
	ValidTo          *time.Time `json:"valid_to,omitempty"`
}

// Offer is a persisted discount joined with its merchant, card and bank.
// The store produces Offers; ranking and the semantic index consume them.
type Offer struct {
	DiscountID       int64      `json:"discount_id"`
	DiscountPercent  float64    `json:"discount_percent"`
	Conditions       string     `json:"conditions"`
	ValidFrom        *time.Time `json:"valid_from,omitempty"`
	ValidTo          *time.Time `json:"valid_to,omitempty"`
	Merchant         string     `json:"merchant"`
	City             string     `json:"city"`
	Category         string     `json:"category"`
	MerchantImageURL string     `json:"merchant_image_url,omitempty"`
	CardName         string     `json:"card_name"`
	CardType         string     `json:"card_type"`
	CardTier         string     `json:"card_tier"`
	Bank             string     `json:"bank"`
}

// CardStats aggregates a card's discounts for card-level ranking. Coverage
// fields are ratios in 0..1; TotalDiscountValue is the raw percent sum and is
// normalized at ranking time.
type CardStats struct {
	CardName           string  `json:"card_name"`
	Bank               string  `json:"bank"`
	CardType           string  `json:"card_type"`
	CardTier           string  `json:"card_tier"`
	DiscountCount      int     `json:"discount_count"`
	TotalDiscountValue float64 `json:"total_discount_value"`
	MerchantCoverage   float64 `json:"merchant_coverage"`
	CityCoverage       float64 `json:"city_coverage"`
}
