package model

import (
	"math"
	"strings"
	"time"
)

// ProductID uniquely identifies a product
type ProductID string

// ReviewID uniquely identifies a product review
type ReviewID string

// Review rating bounds
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's rating of a product
type Review struct {
	ID        ReviewID  `json:"id" bson:"id"`
	UserID    UserID    `json:"user_id" bson:"user_id"`
	Name      string    `json:"name" bson:"name"`
	Rating    int       `json:"rating" bson:"rating"`
	Comment   string    `json:"comment" bson:"comment"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Product is an item offered on the platform
type Product struct {
	ID          ProductID  `json:"id" bson:"_id"`
	Name        string     `json:"name" bson:"name"`
	Description string     `json:"description" bson:"description"`
	Price       int64      `json:"price" bson:"price"` // minor currency units
	Category    string     `json:"category" bson:"category"`
	Stock       int        `json:"stock" bson:"stock"`
	Images      []MediaRef `json:"images" bson:"images"`
	Rating      float64    `json:"rating" bson:"rating"`
	NumReviews  int        `json:"num_reviews" bson:"num_reviews"`
	Reviews     []Review   `json:"reviews" bson:"reviews"`
	CreatedBy   UserID     `json:"created_by" bson:"created_by"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

// Validate checks the product record before it is persisted
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return NewValidationError("name", "Please enter the product name")
	}
	if strings.TrimSpace(p.Description) == "" {
		return NewValidationError("description", "Please enter the product description")
	}
	if p.Price < 0 {
		return NewValidationError("price", "Price cannot be negative")
	}
	if strings.TrimSpace(p.Category) == "" {
		return NewValidationError("category", "Please enter the product category")
	}
	if p.Stock < 0 {
		return NewValidationError("stock", "Stock cannot be negative")
	}
	return nil
}

// Clone returns a deep copy of the product
func (p *Product) Clone() *Product {
	c := *p
	c.Images = append([]MediaRef(nil), p.Images...)
	c.Reviews = append([]Review(nil), p.Reviews...)
	return &c
}

// GetReviewByUser returns the review left by a user, or nil
func (p *Product) GetReviewByUser(userID UserID) *Review {
	for i := range p.Reviews {
		if p.Reviews[i].UserID == userID {
			return &p.Reviews[i]
		}
	}
	return nil
}

// GetReview returns the review with the given ID, or nil
func (p *Product) GetReview(id ReviewID) *Review {
	for i := range p.Reviews {
		if p.Reviews[i].ID == id {
			return &p.Reviews[i]
		}
	}
	return nil
}

// RemoveReview drops the review with the given ID, returning true if present
func (p *Product) RemoveReview(id ReviewID) bool {
	for i := range p.Reviews {
		if p.Reviews[i].ID == id {
			p.Reviews = append(p.Reviews[:i], p.Reviews[i+1:]...)
			p.RecomputeRating()
			return true
		}
	}
	return false
}

// RecomputeRating refreshes Rating and NumReviews from Reviews
func (p *Product) RecomputeRating() {
	p.NumReviews = len(p.Reviews)
	if p.NumReviews == 0 {
		p.Rating = 0
		return
	}
	total := 0
	for _, r := range p.Reviews {
		total += r.Rating
	}
	p.Rating = float64(total) / float64(p.NumReviews)
}

// DefaultProductsPerPage is the page size used when listing products
const DefaultProductsPerPage = 8

// MaxProductPage is the highest page number a listing request may ask for
const MaxProductPage = 1 << 20

// ProductQuery filters and paginates product listings
type ProductQuery struct {
	Keyword  string
	Category string
	MinPrice *int64
	MaxPrice *int64
	Page     int // 1-based, 0 means first page
	PerPage  int // 0 means DefaultProductsPerPage
}

// Matches reports whether a product satisfies the query filters
func (q ProductQuery) Matches(p *Product) bool {
	if q.Keyword != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Keyword)) {
		return false
	}
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if q.MinPrice != nil && p.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && p.Price > *q.MaxPrice {
		return false
	}
	return true
}

// Limit returns the effective page size
func (q ProductQuery) Limit() int {
	if q.PerPage <= 0 {
		return DefaultProductsPerPage
	}
	return q.PerPage
}

// Offset returns the number of matching products to skip, saturating at
// math.MaxInt rather than overflowing
func (q ProductQuery) Offset() int {
	if q.Page <= 1 {
		return 0
	}
	limit := q.Limit()
	if q.Page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (q.Page - 1) * limit
}

// ProductPage is one page of a filtered product listing
type ProductPage struct {
	Products      []*Product
	TotalCount    int // all products
	FilteredCount int // products matching the filters
}
