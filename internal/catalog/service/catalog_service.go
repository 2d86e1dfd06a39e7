package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/catalog/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/catalog/repository"
)

type SortOrder string

const (
	SortPopular   SortOrder = "pop"
	SortPriceLow  SortOrder = "low"
	SortPriceHigh SortOrder = "high"
	SortName      SortOrder = "az"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidSort     = errors.New("invalid sort order")
)

// Query narrows and orders a catalog listing. Empty fields mean no filtering.
type Query struct {
	Category string
	Search   string
	Sort     SortOrder
}

type CatalogService struct {
	repo repository.RepoInterface
}

func NewCatalogService(repo repository.RepoInterface) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// Browse filters by category (exact, "All" disables it), then by a case-insensitive
// search over name, category and description, then sorts.
func (s *CatalogService) Browse(ctx context.Context, q Query) ([]*domain.Product, error) {
	if q.Sort == "" {
		q.Sort = SortPopular
	}
	switch q.Sort {
	case SortPopular, SortPriceLow, SortPriceHigh, SortName:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSort, q.Sort)
	}

	all, err := s.repo.GetAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))
	filtered := make([]*domain.Product, 0, len(all))
	for _, p := range all {
		if q.Category != "" && q.Category != "All" && p.Category != q.Category {
			continue
		}
		if search != "" && !matches(p, search) {
			continue
		}
		filtered = append(filtered, p)
	}

	switch q.Sort {
	case SortPriceLow:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Price.LessThan(filtered[j].Price) })
	case SortPriceHigh:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Price.GreaterThan(filtered[j].Price) })
	case SortName:
		sort.SliceStable(filtered, func(i, j int) bool {
			return strings.ToLower(filtered[i].Name) < strings.ToLower(filtered[j].Name)
		})
	}

	return filtered, nil
}

func matches(p *domain.Product, search string) bool {
	return strings.Contains(strings.ToLower(p.Name), search) ||
		strings.Contains(strings.ToLower(p.Category), search) ||
		strings.Contains(strings.ToLower(p.Description), search)
}
