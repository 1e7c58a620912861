// Package topics provides the catalog of (category, items) pairs that rounds draw from.
package topics

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"
)

// Topic is one category and the secret items it offers. Immutable once loaded.
type Topic struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// Catalog draws topics uniformly at random. Safe for concurrent use.
type Catalog struct {
	topics []Topic
	mu     sync.Mutex
	rng    *rand.Rand
}

// NewCatalog validates topics and returns a catalog seeded from the wall clock.
func NewCatalog(topics []Topic) (*Catalog, error) {
	return NewCatalogWithRand(topics, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewCatalogWithRand is NewCatalog with an explicit random source, for deterministic draws.
func NewCatalogWithRand(topics []Topic, rng *rand.Rand) (*Catalog, error) {
	if len(topics) == 0 {
		return nil, ErrEmptyCatalog
	}
	cleaned := make([]Topic, 0, len(topics))
	for i, t := range topics {
		category := strings.TrimSpace(t.Category)
		if category == "" {
			return nil, fmt.Errorf("%w: topic %d", ErrEmptyCategory, i)
		}
		items := make([]string, 0, len(t.Items))
		for _, item := range t.Items {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyItems, category)
		}
		cleaned = append(cleaned, Topic{Category: category, Items: items})
	}
	return &Catalog{topics: cleaned, rng: rng}, nil
}

// LoadFile reads a JSON array of topics from path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topics file %s: %w", path, err)
	}
	var topics []Topic
	if err := json.Unmarshal(data, &topics); err != nil {
		return nil, fmt.Errorf("parsing topics file %s: %w", path, err)
	}
	return NewCatalog(topics)
}

// Default returns a catalog over the built-in topics.
func Default() *Catalog {
	c, err := NewCatalog(builtin)
	if err != nil {
		panic(err) // built-in data is static
	}
	return c
}

// Draw picks a category uniformly, then an item uniformly within it.
// Repeats across calls are allowed.
func (c *Catalog) Draw() (category, item string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.topics[c.rng.Intn(len(c.topics))]
	return t.Category, t.Items[c.rng.Intn(len(t.Items))]
}

// Topics returns a copy of the catalog contents.
func (c *Catalog) Topics() []Topic {
	out := make([]Topic, len(c.topics))
	for i, t := range c.topics {
		out[i] = Topic{Category: t.Category, Items: append([]string(nil), t.Items...)}
	}
	return out
}

// Len is the number of categories.
func (c *Catalog) Len() int {
	return len(c.topics)
}
