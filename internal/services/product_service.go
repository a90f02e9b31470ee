package services

import (
	"shoten/internal/models"
	"shoten/internal/repositories"
)

// ProductService handles business logic related to products. The cart and
// order services consume it as the catalog collaborator for purchasability
// checks and denormalized snapshots.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// GetProductIncludingRemoved resolves a product even after removal, so
// historical cart and order lines keep displaying.
func (s *ProductService) GetProductIncludingRemoved(id string) (*models.Product, error) {
	return s.repo.GetByIDIncludingRemoved(id)
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(product *models.Product) error {
	return s.repo.Create(product)
}

// UpdateProduct updates an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	return s.repo.Update(product)
}

// DeleteProduct removes a product from sale. Existing carts and orders are
// unaffected; the product only stops being purchasable.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}
