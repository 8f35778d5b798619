// Package semantic provides the fallback search index: offers embedded as
// hashed bag-of-token vectors, searched by inner product. Vectors are
// L2-normalized so inner product equals cosine similarity.
package semantic

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"mzohaib/bankdealworker/internal/deal"
	"mzohaib/bankdealworker/logger"
)

const dimension = 256

// Result is one semantic search hit
type Result struct {
	Offer deal.Offer `json:"offer"`
	Score float64    `json:"score"`
}

// Index is the persisted offer index. Rebuild swaps the whole index
// atomically; Search lazily loads a previously persisted index from disk.
type Index struct {
	mu        sync.RWMutex
	vectors   [][]float64
	meta      []deal.Offer
	loaded    bool
	indexPath string
	metaPath  string
	log       *logger.Logger
}

// NewIndex creates an index persisted at the given paths. Nothing is loaded
// until the first search.
func NewIndex(indexPath, metaPath string) *Index {
	return &Index{
		indexPath: indexPath,
		metaPath:  metaPath,
		log:       logger.ForComponent("semantic"),
	}
}

// embedText is the canonical text an offer is embedded from.
func embedText(offer deal.Offer) string {
	return fmt.Sprintf("%s %s %s %s%% %s %s %s Bank %s %s",
		offer.Merchant, offer.City, offer.Category,
		strconv.FormatFloat(offer.DiscountPercent, 'f', -1, 64),
		offer.CardName, offer.CardType, offer.CardTier,
		offer.Bank, offer.Conditions,
	)
}

// embed hashes each token into one of the vector's buckets and counts, then
// L2-normalizes. The zero vector stays zero for empty or symbol-only text.
func embed(text string) []float64 {
	vector := make([]float64, dimension)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vector[h.Sum32()%dimension]++
	}

	var norm float64
	for _, v := range vector {
		norm += v * v
	}
	if norm == 0 {
		return vector
	}
	norm = math.Sqrt(norm)
	for i := range vector {
		vector[i] /= norm
	}
	return vector
}

// Rebuild re-embeds the whole corpus, persists it, and swaps it in. An empty
// corpus yields an empty but valid index.
func (ix *Index) Rebuild(offers []deal.Offer) error {
	vectors := make([][]float64, 0, len(offers))
	meta := make([]deal.Offer, 0, len(offers))
	for _, offer := range offers {
		vectors = append(vectors, embed(embedText(offer)))
		meta = append(meta, offer)
	}

	if err := ix.persist(vectors, meta); err != nil {
		return err
	}

	ix.mu.Lock()
	ix.vectors = vectors
	ix.meta = meta
	ix.loaded = true
	ix.mu.Unlock()

	ix.log.Info().Int("offers", len(meta)).Msg("Semantic index rebuilt")
	return nil
}

// Search returns the topK closest offers to the query, best first. An empty
// index or empty query returns no results.
func (ix *Index) Search(query string, topK int) ([]Result, error) {
	if err := ix.ensureLoaded(); err != nil {
		return nil, err
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	queryVector := embed(query)
	var results []Result
	for i, vector := range ix.vectors {
		score := 0.0
		for j := range vector {
			score += vector[j] * queryVector[j]
		}
		if score <= 0 {
			continue
		}
		results = append(results, Result{Offer: ix.meta[i], Score: math.Round(score*10000) / 10000})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// ensureLoaded loads the persisted index on first use. Missing files mean an
// empty index, not an error.
func (ix *Index) ensureLoaded() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.loaded {
		return nil
	}

	vectorData, err := os.ReadFile(ix.indexPath)
	if os.IsNotExist(err) {
		ix.loaded = true
		return nil
	}
	if err != nil {
		return err
	}
	metaData, err := os.ReadFile(ix.metaPath)
	if err != nil {
		return err
	}

	var vectors [][]float64
	if err := json.Unmarshal(vectorData, &vectors); err != nil {
		return fmt.Errorf("corrupt semantic index: %w", err)
	}
	var meta []deal.Offer
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return fmt.Errorf("corrupt semantic metadata: %w", err)
	}
	if len(vectors) != len(meta) {
		return fmt.Errorf("semantic index and metadata disagree: %d vectors, %d offers", len(vectors), len(meta))
	}

	ix.vectors = vectors
	ix.meta = meta
	ix.loaded = true
	return nil
}

func (ix *Index) persist(vectors [][]float64, meta []deal.Offer) error {
	if err := os.MkdirAll(filepath.Dir(ix.indexPath), 0o755); err != nil {
		return err
	}
	if err := writeJSON(ix.indexPath, vectors); err != nil {
		return err
	}
	return writeJSON(ix.metaPath, meta)
}

// writeJSON writes through a temp file and renames, so a crash mid-write
// never leaves a truncated index behind.
func writeJSON(path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
