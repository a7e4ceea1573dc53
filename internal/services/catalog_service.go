package services

import (
	"database/sql"
	"errors"
	"strings"

	"keepsake/internal/domain"
	"keepsake/internal/repos"
)

var ErrProductNotFound = errors.New("product not found")

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods}
}

func (s *CatalogService) ListCategories() ([]domain.Category, error) {
	return s.Cats.List()
}

// GetProduct returns ErrProductNotFound for unknown or inactive products.
func (s *CatalogService) GetProduct(id string) (domain.Product, error) {
	p, err := s.Prods.Get(id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !p.Active) {
		return domain.Product{}, ErrProductNotFound
	}
	return p, err
}

func (s *CatalogService) Search(q, category string, page, pageSize int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 12
	}
	offset := (page - 1) * pageSize
	return s.Prods.Search(strings.ToLower(q), category, pageSize, offset)
}

func (s *CatalogService) SetPrice(id string, priceUSD float64) error {
	if _, err := s.GetProduct(id); err != nil {
		return err
	}
	return s.Prods.SetPrice(id, priceUSD)
}
