package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mzohaib/bankdealworker/internal/deal"
)

func TestWidgetScrapeEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><script src="/static/bundle.js"></script></head><body></body></html>`)
	})
	mux.HandleFunc("/static/bundle.js", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `!function(){}();window.__pkbg__ = {"DOMAIN":%q,"OWNER_KEY":"test-key","VERSION":"3.1","LIMIT":2};`, srv.URL)
	})
	mux.HandleFunc(widgetQueryPath, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.Header.Get("ownerkey"))
		require.Equal(t, "IFRAME", r.Header.Get("medium"))

		var query widgetQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&query))
		require.Equal(t, "Pakistan", query.Country)
		// City names go over the wire unmodified.
		require.NotEqual(t, "lahore", query.City)

		var entities []map[string]any
		if query.City == "Lahore" {
			switch query.Offset {
			case "0":
				entities = []map[string]any{
					{"name": "Cafe Lounge", "maxDiscount": 15, "keywords": "coffee lounge", "discountFlag": "Flat"},
					{"name": "Get More", "maxDiscount": 10},
				}
			case "2":
				entities = []map[string]any{
					{"name": "Sapphire", "maxDiscount": "20", "keywords": "fashion clothing", "logo": "https://cdn.example/sapphire.png"},
					{"name": "No Discount Shop", "maxDiscount": 0},
				}
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"entities": entities})
	})

	client := NewWidgetClient(2, 30)
	src := deal.BankSource{
		Name:       "Meezan Bank",
		Website:    "https://www.meezanbank.com/card-discounts/",
		BaseDomain: "meezanbank.com",
		WidgetBase: srv.URL,
	}

	deals, err := client.FetchDeals(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, deals, 2)

	sort.Slice(deals, func(i, j int) bool { return deals[i].MerchantName < deals[j].MerchantName })

	cafe := deals[0]
	assert.Equal(t, "Cafe Lounge", cafe.MerchantName)
	assert.Equal(t, "Lahore", cafe.City)
	assert.Equal(t, "Food", cafe.Category)
	assert.Equal(t, 15.0, cafe.DiscountPercent)
	assert.Equal(t, "Debit", cafe.CardType)
	assert.Equal(t, "Basic", cafe.CardTier)
	assert.Equal(t, "Meezan Bank Basic Debit Card", cafe.CardName)
	assert.Equal(t, "Flat 15% off", cafe.Conditions)

	sapphire := deals[1]
	assert.Equal(t, "Sapphire", sapphire.MerchantName)
	assert.Equal(t, "Fashion", sapphire.Category)
	assert.Equal(t, 20.0, sapphire.DiscountPercent)
	assert.Equal(t, "Up to 20% off", sapphire.Conditions)
	assert.Equal(t, "https://cdn.example/sapphire.png", sapphire.MerchantImageURL)
}

func TestWidgetSkippedWithoutHost(t *testing.T) {
	client := NewWidgetClient(50, 30)
	deals, err := client.FetchDeals(context.Background(), deal.BankSource{Name: "UBL"})
	require.NoError(t, err)
	assert.Nil(t, deals)
}

func TestParseWidgetConfig(t *testing.T) {
	cfg, err := parseWidgetConfig([]byte(`{"DOMAIN":"api.example.com","OWNER_KEY":"k","VERSION":"2","LIMIT":"25"}`))
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.Domain)
	assert.Equal(t, "k", cfg.OwnerKey)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, "Pakistan", cfg.BaseCountry)

	// Missing LIMIT falls back to the widget's own default.
	cfg, err = parseWidgetConfig([]byte(`{"DOMAIN":"api.example.com","OWNER_KEY":"k"}`))
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.PageSize)

	_, err = parseWidgetConfig([]byte(`{"DOMAIN":"api.example.com"}`))
	assert.Error(t, err)
}

func TestBootstrapRaisesSmallPageSize(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><script src="/bundle.js"></script></head></html>`)
	})
	mux.HandleFunc("/bundle.js", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `window.__pkbg__ = {"DOMAIN":%q,"OWNER_KEY":"k","VERSION":"1","LIMIT":12};`, srv.URL)
	})

	// The widget's UI-tuned LIMIT is raised to the page floor, so a city
	// drains within the page cap; a larger configured LIMIT is kept.
	client := NewWidgetClient(50, 30)
	cfg, err := client.bootstrap(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.PageSize)

	client = NewWidgetClient(10, 30)
	cfg, err = client.bootstrap(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.PageSize)
}

func TestWidgetHostDetection(t *testing.T) {
	page := `<iframe src="https://hbl-web.peekaboo.guru/home"></iframe>`
	m := widgetHostRe.FindStringSubmatch(page)
	require.NotNil(t, m)
	assert.Equal(t, "hbl-web.peekaboo.guru", m[1])

	assert.Nil(t, widgetHostRe.FindStringSubmatch(`<p>no widget here</p>`))
}

func TestEntityToDealDropsInvalid(t *testing.T) {
	src := deal.BankSource{Name: "HBL"}

	_, ok := entityToDeal(widgetEntity{Name: "Broadway Pizza", MaxDiscount: json.RawMessage(`0`)}, src, "Karachi")
	assert.False(t, ok)

	_, ok = entityToDeal(widgetEntity{Name: "@@@###", MaxDiscount: json.RawMessage(`15`)}, src, "Karachi")
	assert.False(t, ok)

	d, ok := entityToDeal(widgetEntity{Name: "Broadway Pizza", MaxDiscount: json.RawMessage(`"12.5"`), Keywords: "pizza restaurant"}, src, "Karachi")
	require.True(t, ok)
	assert.Equal(t, "Broadway Pizza", d.MerchantName)
	assert.Equal(t, 12.5, d.DiscountPercent)
	assert.Equal(t, "Food", d.Category)
	assert.Equal(t, "Up to 12.5% off", d.Conditions)
}
