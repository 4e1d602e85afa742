package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// SearchService queries Elasticsearch when a client is configured and the database
// otherwise.
type SearchService struct {
	ES    *elasticsearch.Client
	Index string
	Repo  *repo.GormRepo
}

type searchDoc struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	CategoryID  *uint  `json:"category_id,omitempty"`
}

func (s *SearchService) Enabled() bool { return s != nil && s.ES != nil }

func (s *SearchService) Search(ctx context.Context, query string, page, size int) (*Page, error) {
	l := logging.FromContext(ctx).With("svc", "search.search")
	query = strings.TrimSpace(query)
	offset, limit := util.Calculate(page, size)

	if query == "" {
		return newPage(nil, 0, page, limit), nil
	}

	if !s.Enabled() {
		total, items, err := s.Repo.SearchProducts(ctx, query, offset, limit)
		if err != nil {
			l.Error("search_error", "status", 500, "backend", "db", "error", err)
			return nil, err
		}
		return newPage(items, total, page, limit), nil
	}

	total, ids, err := s.searchES(ctx, query, offset, limit)
	if err != nil {
		l.Error("search_error", "status", 500, "backend", "elasticsearch", "error", err)
		return nil, err
	}
	byID, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	items := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			items = append(items, p)
		}
	}
	return newPage(items, total, page, limit), nil
}

func (s *SearchService) searchES(ctx context.Context, query string, from, size int) (int64, []uint, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("encode search: %w", err)
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(s.Index),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return 0, nil, fmt.Errorf("search %s: %s", res.Status(), msg)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source searchDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search: %w", err)
	}

	ids := make([]uint, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		ids = append(ids, hit.Source.ID)
	}
	return r.Hits.Total.Value, ids, nil
}

// IndexProduct upserts the product document. No-op without Elasticsearch.
func (s *SearchService) IndexProduct(ctx context.Context, p *models.Product) error {
	if !s.Enabled() {
		return nil
	}
	doc := searchDoc{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		CategoryID:  p.CategoryID,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	res, err := s.ES.Index(s.Index, bytes.NewReader(data),
		s.ES.Index.WithContext(ctx),
		s.ES.Index.WithDocumentID(strconv.FormatUint(uint64(p.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index product %d: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index product %d: %s", p.ID, res.Status())
	}
	return nil
}

func (s *SearchService) RemoveProduct(ctx context.Context, id uint) error {
	if !s.Enabled() {
		return nil
	}
	res, err := s.ES.Delete(s.Index, strconv.FormatUint(uint64(id), 10), s.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("remove product %d: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remove product %d: %s", id, res.Status())
	}
	return nil
}
