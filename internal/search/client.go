// Package search queries the OpenSearch POI indexes.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/neexbeast/kira-trips/internal/httpjson"
)

const searchTimeout = 15 * time.Second

// DefaultIndexes are searched in order when none are configured.
var DefaultIndexes = []string{"tourism-data-v-working", "poi-data"}

var searchFields = []string{
	"name^3",
	"description^2",
	"tags^2",
	"category^2",
	"city^2",
	"location.name^2",
	"location.address",
	"metadata.city^2",
	"metadata.category^2",
}

// Document is one search hit normalized across index schemas.
type Document struct {
	Index    string         `json:"index"`
	Name     string         `json:"name"`
	Text     string         `json:"text"`
	Category string         `json:"category,omitempty"`
	City     string         `json:"city,omitempty"`
	Metadata map[string]any `json:"metadata"`
}

// Client runs multi_match queries against one or more indexes.
type Client struct {
	baseURL string
	indexes []string
	client  *http.Client
	log     *slog.Logger
}

// NewClient constructs a Client. An empty index list uses DefaultIndexes.
func NewClient(baseURL string, indexes []string, log *slog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid OpenSearch URL %q", baseURL)
	}

	var idx []string
	for _, i := range indexes {
		if i = strings.TrimSpace(i); i != "" {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		idx = DefaultIndexes
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		indexes: idx,
		client:  httpjson.NewClient(searchTimeout),
		log:     log,
	}, nil
}

// Search returns hits from every index that answered, in index order then
// relevance order. It fails only when no index answered.
func (c *Client) Search(ctx context.Context, query string, size int) ([]Document, error) {
	body := map[string]any{
		"size": size,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": searchFields,
				"type":   "best_fields",
			},
		},
	}

	var (
		docs []Document
		errs []error
	)
	for _, idx := range c.indexes {
		var raw []byte
		endpoint := c.baseURL + "/" + url.PathEscape(idx) + "/_search"
		if err := httpjson.Post(ctx, c.client, endpoint, body, &raw); err != nil {
			c.log.Warn("search index failed", "index", idx, "err", err)
			errs = append(errs, fmt.Errorf("index %s: %w", idx, err))
			continue
		}
		docs = append(docs, parseHits(idx, raw)...)
	}

	if len(errs) == len(c.indexes) {
		return nil, fmt.Errorf("searching %q: %w", query, errors.Join(errs...))
	}
	return docs, nil
}

// Ping checks that the cluster answers.
func (c *Client) Ping(ctx context.Context) error {
	if err := httpjson.Get(ctx, c.client, c.baseURL+"/", nil, nil); err != nil {
		return fmt.Errorf("opensearch ping: %w", err)
	}
	return nil
}

func parseHits(index string, raw []byte) []Document {
	var docs []Document
	gjson.GetBytes(raw, "hits.hits").ForEach(func(_, hit gjson.Result) bool {
		src := hit.Get("_source")
		if !src.IsObject() {
			return true
		}
		docs = append(docs, Document{
			Index:    index,
			Name:     firstString(src, "name", "title", "poi_name"),
			Text:     firstString(src, "description", "text"),
			Category: firstString(src, "category", "metadata.category"),
			City:     firstString(src, "city", "metadata.city"),
			Metadata: flatten(src),
		})
		return true
	})
	return docs
}

func firstString(src gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := src.Get(p); v.Type == gjson.String {
			if s := strings.TrimSpace(v.Str); s != "" {
				return s
			}
		}
	}
	return ""
}

// flatten returns _source with the keys of its nested metadata object
// lifted to the top level. Top-level keys win.
func flatten(src gjson.Result) map[string]any {
	out, _ := src.Value().(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	if meta, ok := out["metadata"].(map[string]any); ok {
		for k, v := range meta {
			if _, exists := out[k]; !exists {
				out[k] = v
			}
		}
	}
	return out
}
