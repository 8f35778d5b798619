// Package store persists banks, merchants, cards and discounts in SQLite and
// serves the filtered offer queries behind the HTTP API.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"mzohaib/bankdealworker/internal/deal"
	"mzohaib/bankdealworker/internal/extract"
	"mzohaib/bankdealworker/logger"
	apperrors "mzohaib/bankdealworker/pkg/errors"
)

const dateLayout = "2006-01-02"

const schema = `
CREATE TABLE IF NOT EXISTS banks (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	name    TEXT NOT NULL UNIQUE,
	website TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS merchants (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	name      TEXT NOT NULL UNIQUE,
	city      TEXT NOT NULL DEFAULT 'Karachi',
	category  TEXT NOT NULL DEFAULT 'Retail',
	image_url TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS cards (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	bank_id   INTEGER NOT NULL REFERENCES banks(id),
	name      TEXT NOT NULL,
	card_type TEXT NOT NULL DEFAULT 'Debit',
	card_tier TEXT NOT NULL DEFAULT 'Basic',
	UNIQUE (bank_id, name)
);

CREATE TABLE IF NOT EXISTS discounts (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	merchant_id      INTEGER NOT NULL REFERENCES merchants(id),
	card_id          INTEGER NOT NULL REFERENCES cards(id),
	discount_percent REAL NOT NULL,
	conditions       TEXT NOT NULL DEFAULT '',
	valid_from       TEXT,
	valid_to         TEXT,
	created_at       TEXT NOT NULL DEFAULT (datetime('now'))
);

-- SQLite treats NULLs as distinct in unique indexes, so open-ended validity
-- dates are coalesced to '' for the dedup key.
CREATE UNIQUE INDEX IF NOT EXISTS idx_discounts_dedup
	ON discounts (merchant_id, card_id, discount_percent,
	              ifnull(valid_from, ''), ifnull(valid_to, ''));

CREATE INDEX IF NOT EXISTS idx_discounts_merchant ON discounts (merchant_id);
CREATE INDEX IF NOT EXISTS idx_discounts_card ON discounts (card_id);
`

// Filter narrows an offer listing. Zero values mean no restriction.
type Filter struct {
	City     string
	Category string
	Bank     string
	CardType string
	CardTier string
	Limit    uint64
	Offset   uint64
}

// Analytics summarizes the stored corpus
type Analytics struct {
	Banks          int            `json:"banks"`
	Merchants      int            `json:"merchants"`
	Cards          int            `json:"cards"`
	Discounts      int            `json:"discounts"`
	AveragePercent float64        `json:"average_percent"`
	ExpiringSoon   int            `json:"expiring_soon"`
	ByCity         map[string]int `json:"by_city"`
	ByCategory     map[string]int `json:"by_category"`
	ByBank         map[string]int `json:"by_bank"`
}

// ErrBankNotFound is returned by GetBank for an unknown bank id
var ErrBankNotFound = errors.New("bank not found")

// TrendPoint is one week's discount intake
type TrendPoint struct {
	Week  string `json:"week"`
	Count int    `json:"count"`
}

// Trends is the weekly discount series with a naive next-week forecast
type Trends struct {
	Series           []TrendPoint `json:"series"`
	ForecastNextWeek int          `json:"forecast_next_week"`
}

// BankInsight is one bank's discount portfolio rollup
type BankInsight struct {
	Bank               string  `json:"bank"`
	DiscountCount      int     `json:"discount_count"`
	TotalDiscountValue float64 `json:"total_discount_value"`
	CategoryCoverage   int     `json:"category_coverage"`
	AffiliateReady     bool    `json:"affiliate_ready"`
}

// BankSummary is one registered bank
type BankSummary struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Website string `json:"website"`
}

// CardSummary is one bank card in a bank detail response
type CardSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Tier string `json:"tier"`
	Type string `json:"type"`
}

// BankDetail is one bank with its cards
type BankDetail struct {
	BankSummary
	Cards []CardSummary `json:"cards"`
}

// Store wraps the SQLite database
type Store struct {
	db  *sql.DB
	log *logger.Logger
}

// New opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an ephemeral database.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=1")
	if err != nil {
		return nil, apperrors.NewPersistenceError("store", "failed to open database", err)
	}
	// SQLite handles one writer at a time; serializing through a single
	// connection avoids SQLITE_BUSY under the concurrent scrape goroutines.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperrors.NewPersistenceError("store", "failed to apply schema", err)
	}

	return &Store{db: db, log: logger.ForComponent("store")}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertDeals persists one source's scraped deals and returns the deals that
// produced new discount rows; duplicates of stored rows are absent from the
// result. Deals whose merchant name fails the garbled re-check after repair
// are dropped here, not stored.
func (s *Store) UpsertDeals(ctx context.Context, src deal.BankSource, deals []deal.ScrapedDeal) ([]deal.ScrapedDeal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.NewPersistenceError(src.Name, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	bankID, err := s.ensureBank(ctx, tx, src)
	if err != nil {
		return nil, err
	}

	inserted := make([]deal.ScrapedDeal, 0, len(deals))
	for _, d := range deals {
		if extract.LooksGarbled(d.MerchantName) {
			s.log.Debug().Str("merchant", d.MerchantName).Msg("Dropping garbled merchant at persistence")
			continue
		}

		merchantID, err := s.ensureMerchant(ctx, tx, d)
		if err != nil {
			return inserted, err
		}
		cardID, err := s.ensureCard(ctx, tx, bankID, d)
		if err != nil {
			return inserted, err
		}

		ok, err := s.insertDiscount(ctx, tx, merchantID, cardID, d)
		if err != nil {
			return inserted, err
		}
		if ok {
			inserted = append(inserted, d)
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, apperrors.NewPersistenceError(src.Name, "failed to commit", err)
	}
	return inserted, nil
}

func (s *Store) ensureBank(ctx context.Context, tx *sql.Tx, src deal.BankSource) (int64, error) {
	query, args, err := sq.Insert("banks").
		Columns("name", "website").
		Values(src.Name, src.Website).
		Suffix("ON CONFLICT(name) DO NOTHING").
		ToSql()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, apperrors.NewPersistenceError(src.Name, "failed to insert bank", err)
	}

	var id int64
	query, args, _ = sq.Select("id").From("banks").Where(sq.Eq{"name": src.Name}).ToSql()
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, apperrors.NewPersistenceError(src.Name, "failed to load bank id", err)
	}
	return id, nil
}

// ensureMerchant inserts the merchant on first sight. An existing merchant
// only gets its image backfilled when it has none; city and category keep
// their first-seen values.
func (s *Store) ensureMerchant(ctx context.Context, tx *sql.Tx, d deal.ScrapedDeal) (int64, error) {
	var (
		id    int64
		image string
	)
	query, args, _ := sq.Select("id", "image_url").
		From("merchants").
		Where(sq.Eq{"name": d.MerchantName}).
		ToSql()
	err := tx.QueryRowContext(ctx, query, args...).Scan(&id, &image)
	switch {
	case err == sql.ErrNoRows:
		query, args, _ = sq.Insert("merchants").
			Columns("name", "city", "category", "image_url").
			Values(d.MerchantName, d.City, d.Category, d.MerchantImageURL).
			ToSql()
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, apperrors.NewPersistenceError(d.MerchantName, "failed to insert merchant", err)
		}
		return result.LastInsertId()
	case err != nil:
		return 0, apperrors.NewPersistenceError(d.MerchantName, "failed to load merchant", err)
	}

	if image == "" && d.MerchantImageURL != "" {
		query, args, _ = sq.Update("merchants").
			Set("image_url", d.MerchantImageURL).
			Where(sq.Eq{"id": id}).
			ToSql()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, apperrors.NewPersistenceError(d.MerchantName, "failed to backfill merchant image", err)
		}
	}
	return id, nil
}

func (s *Store) ensureCard(ctx context.Context, tx *sql.Tx, bankID int64, d deal.ScrapedDeal) (int64, error) {
	var id int64
	query, args, _ := sq.Select("id").
		From("cards").
		Where(sq.Eq{"bank_id": bankID, "name": d.CardName}).
		ToSql()
	err := tx.QueryRowContext(ctx, query, args...).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		query, args, _ = sq.Insert("cards").
			Columns("bank_id", "name", "card_type", "card_tier").
			Values(bankID, d.CardName, d.CardType, d.CardTier).
			ToSql()
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, apperrors.NewPersistenceError(d.CardName, "failed to insert card", err)
		}
		return result.LastInsertId()
	case err != nil:
		return 0, apperrors.NewPersistenceError(d.CardName, "failed to load card", err)
	}
	return id, nil
}

// insertDiscount inserts one discount unless an identical row already exists.
// Reports whether a row was inserted.
func (s *Store) insertDiscount(ctx context.Context, tx *sql.Tx, merchantID, cardID int64, d deal.ScrapedDeal) (bool, error) {
	var existing int64
	query, args, _ := sq.Select("count(*)").
		From("discounts").
		Where(sq.Eq{
			"merchant_id":      merchantID,
			"card_id":          cardID,
			"discount_percent": d.DiscountPercent,
		}).
		Where(sq.Expr("ifnull(valid_from, '') = ?", dateOrEmpty(d.ValidFrom))).
		Where(sq.Expr("ifnull(valid_to, '') = ?", dateOrEmpty(d.ValidTo))).
		ToSql()
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&existing); err != nil {
		return false, apperrors.NewPersistenceError(d.MerchantName, "failed to check discount", err)
	}
	if existing > 0 {
		return false, nil
	}

	query, args, _ = sq.Insert("discounts").
		Columns("merchant_id", "card_id", "discount_percent", "conditions", "valid_from", "valid_to").
		Values(merchantID, cardID, d.DiscountPercent, d.Conditions, dateOrNil(d.ValidFrom), dateOrNil(d.ValidTo)).
		ToSql()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return false, apperrors.NewPersistenceError(d.MerchantName, "failed to insert discount", err)
	}
	return true, nil
}

// ExpireOldDiscounts deletes discounts whose validity window ended before
// now and returns how many rows were removed.
func (s *Store) ExpireOldDiscounts(ctx context.Context, now time.Time) (int, error) {
	query, args, _ := sq.Delete("discounts").
		Where(sq.Expr("valid_to IS NOT NULL AND valid_to < ?", now.Format(dateLayout))).
		ToSql()
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewPersistenceError("store", "failed to expire discounts", err)
	}
	affected, _ := result.RowsAffected()
	return int(affected), nil
}

var offerColumns = []string{
	"d.id", "d.discount_percent", "d.conditions", "d.valid_from", "d.valid_to",
	"m.name", "m.city", "m.category", "m.image_url",
	"c.name", "c.card_type", "c.card_tier",
	"b.name",
}

func offerQuery() sq.SelectBuilder {
	return sq.Select(offerColumns...).
		From("discounts d").
		Join("merchants m ON m.id = d.merchant_id").
		Join("cards c ON c.id = d.card_id").
		Join("banks b ON b.id = c.bank_id")
}

// ListOffers returns offers matching the filter, highest discount first.
func (s *Store) ListOffers(ctx context.Context, filter Filter) ([]deal.Offer, error) {
	query := offerQuery()
	if filter.City != "" {
		query = query.Where(sq.Expr("lower(m.city) = lower(?)", filter.City))
	}
	if filter.Category != "" {
		query = query.Where(sq.Expr("lower(m.category) = lower(?)", filter.Category))
	}
	if filter.Bank != "" {
		query = query.Where(sq.Expr("lower(b.name) = lower(?)", filter.Bank))
	}
	if filter.CardType != "" {
		query = query.Where(sq.Expr("lower(c.card_type) = lower(?)", filter.CardType))
	}
	if filter.CardTier != "" {
		query = query.Where(sq.Expr("lower(c.card_tier) = lower(?)", filter.CardTier))
	}
	query = query.OrderBy("d.discount_percent DESC", "d.id ASC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	return s.queryOffers(ctx, query)
}

// AllOffers returns every stored offer; used by ranking and the semantic
// index rebuild.
func (s *Store) AllOffers(ctx context.Context) ([]deal.Offer, error) {
	return s.queryOffers(ctx, offerQuery().OrderBy("d.id ASC"))
}

func (s *Store) queryOffers(ctx context.Context, builder sq.SelectBuilder) ([]deal.Offer, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewPersistenceError("store", "failed to query offers", err)
	}
	defer rows.Close()

	var offers []deal.Offer
	for rows.Next() {
		var (
			offer     deal.Offer
			validFrom sql.NullString
			validTo   sql.NullString
		)
		err := rows.Scan(
			&offer.DiscountID, &offer.DiscountPercent, &offer.Conditions, &validFrom, &validTo,
			&offer.Merchant, &offer.City, &offer.Category, &offer.MerchantImageURL,
			&offer.CardName, &offer.CardType, &offer.CardTier,
			&offer.Bank,
		)
		if err != nil {
			return nil, apperrors.NewPersistenceError("store", "failed to scan offer", err)
		}
		offer.ValidFrom = parseDate(validFrom)
		offer.ValidTo = parseDate(validTo)
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

// CardAggregates computes per-card ranking statistics. Coverage values are
// ratios against the global distinct merchant and city counts.
func (s *Store) CardAggregates(ctx context.Context) ([]deal.CardStats, error) {
	var totalMerchants, totalCities float64
	row := s.db.QueryRowContext(ctx,
		`SELECT count(DISTINCT d.merchant_id), count(DISTINCT m.city)
		 FROM discounts d JOIN merchants m ON m.id = d.merchant_id`)
	if err := row.Scan(&totalMerchants, &totalCities); err != nil {
		return nil, apperrors.NewPersistenceError("store", "failed to count coverage totals", err)
	}

	query, args, err := sq.Select(
		"c.name", "b.name", "c.card_type", "c.card_tier",
		"count(d.id)", "sum(d.discount_percent)",
		"count(DISTINCT d.merchant_id)", "count(DISTINCT m.city)",
	).
		From("discounts d").
		Join("cards c ON c.id = d.card_id").
		Join("banks b ON b.id = c.bank_id").
		Join("merchants m ON m.id = d.merchant_id").
		GroupBy("c.id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewPersistenceError("store", "failed to query card aggregates", err)
	}
	defer rows.Close()

	var stats []deal.CardStats
	for rows.Next() {
		var (
			st                deal.CardStats
			merchants, cities float64
		)
		err := rows.Scan(
			&st.CardName, &st.Bank, &st.CardType, &st.CardTier,
			&st.DiscountCount, &st.TotalDiscountValue,
			&merchants, &cities,
		)
		if err != nil {
			return nil, apperrors.NewPersistenceError("store", "failed to scan card aggregate", err)
		}
		if totalMerchants > 0 {
			st.MerchantCoverage = merchants / totalMerchants
		}
		if totalCities > 0 {
			st.CityCoverage = cities / totalCities
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// Analytics returns corpus-level counts for the admin endpoint.
func (s *Store) Analytics(ctx context.Context, now time.Time) (Analytics, error) {
	a := Analytics{ByCity: map[string]int{}, ByCategory: map[string]int{}, ByBank: map[string]int{}}

	row := s.db.QueryRowContext(ctx, `
		SELECT (SELECT count(*) FROM banks),
		       (SELECT count(*) FROM merchants),
		       (SELECT count(*) FROM cards),
		       (SELECT count(*) FROM discounts),
		       (SELECT ifnull(avg(discount_percent), 0) FROM discounts),
		       (SELECT count(*) FROM discounts
		        WHERE valid_to IS NOT NULL AND valid_to >= ? AND valid_to < ?)`,
		now.Format(dateLayout), now.AddDate(0, 0, 7).Format(dateLayout))
	if err := row.Scan(&a.Banks, &a.Merchants, &a.Cards, &a.Discounts, &a.AveragePercent, &a.ExpiringSoon); err != nil {
		return Analytics{}, apperrors.NewPersistenceError("store", "failed to load analytics counts", err)
	}

	if err := s.countInto(ctx, a.ByCity, "m.city"); err != nil {
		return Analytics{}, err
	}
	if err := s.countInto(ctx, a.ByCategory, "m.category"); err != nil {
		return Analytics{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.name, count(d.id)
		FROM discounts d
		JOIN cards c ON c.id = d.card_id
		JOIN banks b ON b.id = c.bank_id
		GROUP BY b.name`)
	if err != nil {
		return Analytics{}, apperrors.NewPersistenceError("store", "failed to load analytics bank breakdown", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			bank  string
			count int
		)
		if err := rows.Scan(&bank, &count); err != nil {
			return Analytics{}, apperrors.NewPersistenceError("store", "failed to scan analytics bank breakdown", err)
		}
		a.ByBank[bank] = count
	}
	return a, rows.Err()
}

// Trends groups discounts by the Monday of their valid_from week. The
// forecast is the mean of the last three weeks, or the last week when the
// series is shorter.
func (s *Store) Trends(ctx context.Context) (Trends, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date(valid_from, 'weekday 0', '-6 days') AS week, count(id)
		FROM discounts
		WHERE valid_from IS NOT NULL
		GROUP BY week
		ORDER BY week`)
	if err != nil {
		return Trends{}, apperrors.NewPersistenceError("store", "failed to load trends", err)
	}
	defer rows.Close()

	var t Trends
	for rows.Next() {
		var point TrendPoint
		if err := rows.Scan(&point.Week, &point.Count); err != nil {
			return Trends{}, apperrors.NewPersistenceError("store", "failed to scan trend point", err)
		}
		t.Series = append(t.Series, point)
	}
	if err := rows.Err(); err != nil {
		return Trends{}, err
	}

	switch n := len(t.Series); {
	case n >= 3:
		sum := 0
		for _, point := range t.Series[n-3:] {
			sum += point.Count
		}
		t.ForecastNextWeek = sum / 3
	case n > 0:
		t.ForecastNextWeek = t.Series[n-1].Count
	}
	return t, nil
}

// BankInsights rolls up each bank's discount portfolio, highest total
// discount value first. A bank is affiliate-ready with at least 20 discounts
// spanning at least 3 categories.
func (s *Store) BankInsights(ctx context.Context) ([]BankInsight, error) {
	query, args, err := sq.Select(
		"b.name", "count(d.id)", "ifnull(sum(d.discount_percent), 0)",
		"count(DISTINCT m.category)",
	).
		From("discounts d").
		Join("cards c ON c.id = d.card_id").
		Join("banks b ON b.id = c.bank_id").
		Join("merchants m ON m.id = d.merchant_id").
		GroupBy("b.name").
		OrderBy("sum(d.discount_percent) DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewPersistenceError("store", "failed to load bank insights", err)
	}
	defer rows.Close()

	var insights []BankInsight
	for rows.Next() {
		var ins BankInsight
		err := rows.Scan(&ins.Bank, &ins.DiscountCount, &ins.TotalDiscountValue, &ins.CategoryCoverage)
		if err != nil {
			return nil, apperrors.NewPersistenceError("store", "failed to scan bank insight", err)
		}
		ins.AffiliateReady = ins.DiscountCount >= 20 && ins.CategoryCoverage >= 3
		insights = append(insights, ins)
	}
	return insights, rows.Err()
}

// ListBanks returns every registered bank
func (s *Store) ListBanks(ctx context.Context) ([]BankSummary, error) {
	query, args, err := sq.Select("id", "name", "website").From("banks").OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewPersistenceError("store", "failed to list banks", err)
	}
	defer rows.Close()

	var banks []BankSummary
	for rows.Next() {
		var b BankSummary
		if err := rows.Scan(&b.ID, &b.Name, &b.Website); err != nil {
			return nil, apperrors.NewPersistenceError("store", "failed to scan bank", err)
		}
		banks = append(banks, b)
	}
	return banks, rows.Err()
}

// GetBank returns one bank with its cards, or ErrBankNotFound.
func (s *Store) GetBank(ctx context.Context, id int64) (BankDetail, error) {
	var detail BankDetail
	query, args, _ := sq.Select("id", "name", "website").From("banks").Where(sq.Eq{"id": id}).ToSql()
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&detail.ID, &detail.Name, &detail.Website)
	switch {
	case err == sql.ErrNoRows:
		return BankDetail{}, ErrBankNotFound
	case err != nil:
		return BankDetail{}, apperrors.NewPersistenceError("store", "failed to load bank", err)
	}

	query, args, _ = sq.Select("id", "name", "card_tier", "card_type").
		From("cards").
		Where(sq.Eq{"bank_id": id}).
		OrderBy("id").
		ToSql()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return BankDetail{}, apperrors.NewPersistenceError("store", "failed to load bank cards", err)
	}
	defer rows.Close()

	for rows.Next() {
		var card CardSummary
		if err := rows.Scan(&card.ID, &card.Name, &card.Tier, &card.Type); err != nil {
			return BankDetail{}, apperrors.NewPersistenceError("store", "failed to scan bank card", err)
		}
		detail.Cards = append(detail.Cards, card)
	}
	return detail, rows.Err()
}

func (s *Store) countInto(ctx context.Context, dest map[string]int, column string) error {
	query := fmt.Sprintf(
		`SELECT %s, count(d.id) FROM discounts d JOIN merchants m ON m.id = d.merchant_id GROUP BY %s`,
		column, column)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return apperrors.NewPersistenceError("store", "failed to load analytics breakdown", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return apperrors.NewPersistenceError("store", "failed to scan analytics breakdown", err)
		}
		dest[key] = count
	}
	return rows.Err()
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func dateOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

func parseDate(value sql.NullString) *time.Time {
	if !value.Valid || strings.TrimSpace(value.String) == "" {
		return nil
	}
	parsed, err := time.Parse(dateLayout, value.String)
	if err != nil {
		return nil
	}
	return &parsed
}
