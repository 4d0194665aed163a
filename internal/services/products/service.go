package products

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mcoot/coursehub/internal/dependencies/clock"
	"github.com/mcoot/coursehub/internal/media"
	"github.com/mcoot/coursehub/internal/model"
	"github.com/mcoot/coursehub/internal/storage"
)

// Input holds the editable fields of a product
type Input struct {
	Name        string
	Description string
	Price       int64
	Category    string
	Stock       int
}

// Patch holds optional product changes; nil fields are left unchanged
type Patch struct {
	Name        *string
	Description *string
	Price       *int64
	Category    *string
	Stock       *int
}

// Service manages the product catalogue and its reviews
type Service struct {
	storage storage.Storage
	media   media.Uploader
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new products Service
func New(storage storage.Storage, uploader media.Uploader, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		media:   uploader,
		clock:   clock,
		logger:  logger,
	}
}

// Create adds a product, uploading any images first
func (s *Service) Create(ctx context.Context, creator model.UserID, in Input, images []media.Object) (*model.Product, error) {
	now := s.clock.Now()
	product := &model.Product{
		ID:          model.ProductID(uuid.NewString()),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Category:    strings.TrimSpace(in.Category),
		Stock:       in.Stock,
		Images:      []model.MediaRef{},
		Reviews:     []model.Review{},
		CreatedBy:   creator,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	refs, err := s.uploadImages(ctx, images)
	if err != nil {
		return nil, err
	}
	product.Images = refs

	if err := s.storage.SaveProduct(ctx, product); err != nil {
		s.releaseImages(ctx, refs)
		return nil, err
	}

	s.logger.InfoContext(ctx, "product created", slog.String("product_id", string(product.ID)))
	return product, nil
}

// Update applies a patch to a product. When images are supplied they
// replace the existing set.
func (s *Service) Update(ctx context.Context, id model.ProductID, patch Patch, images []media.Object) (*model.Product, error) {
	product, err := s.storage.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		product.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		product.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Category != nil {
		product.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Stock != nil {
		product.Stock = *patch.Stock
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	var previous []model.MediaRef
	replaced := len(images) > 0
	if replaced {
		refs, err := s.uploadImages(ctx, images)
		if err != nil {
			return nil, err
		}
		previous = product.Images
		product.Images = refs
	}

	product.UpdatedAt = s.clock.Now()
	if err := s.storage.SaveProduct(ctx, product); err != nil {
		if replaced {
			s.releaseImages(ctx, product.Images)
		}
		return nil, err
	}

	s.releaseImages(ctx, previous)
	return product, nil
}

// Delete removes a product and its images
func (s *Service) Delete(ctx context.Context, id model.ProductID) error {
	product, err := s.storage.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.releaseImages(ctx, product.Images)
	return nil
}

// Get retrieves a product by ID
func (s *Service) Get(ctx context.Context, id model.ProductID) (*model.Product, error) {
	return s.storage.GetProduct(ctx, id)
}

// List returns one page of products matching the query
func (s *Service) List(ctx context.Context, query model.ProductQuery) (*model.ProductPage, error) {
	if query.MinPrice != nil && query.MaxPrice != nil && *query.MinPrice > *query.MaxPrice {
		return nil, model.NewValidationError("price", "Minimum price cannot exceed maximum price")
	}
	return s.storage.ListProducts(ctx, query)
}

// UpsertReview records a user's review, replacing any earlier one they left
func (s *Service) UpsertReview(ctx context.Context, author *model.User, productID model.ProductID, rating int, comment string) (*model.Product, error) {
	if rating < model.MinRating || rating > model.MaxRating {
		return nil, model.NewValidationError("rating", "Rating must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, model.NewValidationError("comment", "Please enter a comment")
	}

	product, err := s.storage.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if existing := product.GetReviewByUser(author.ID); existing != nil {
		existing.Rating = rating
		existing.Comment = comment
		existing.Name = author.Name
	} else {
		product.Reviews = append(product.Reviews, model.Review{
			ID:        model.ReviewID(uuid.NewString()),
			UserID:    author.ID,
			Name:      author.Name,
			Rating:    rating,
			Comment:   comment,
			CreatedAt: s.clock.Now(),
		})
	}
	product.RecomputeRating()
	product.UpdatedAt = s.clock.Now()

	if err := s.storage.SaveProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// ListReviews returns the reviews of a product
func (s *Service) ListReviews(ctx context.Context, productID model.ProductID) ([]model.Review, error) {
	product, err := s.storage.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return product.Reviews, nil
}

// DeleteReview removes a review; only its author or an admin may do so
func (s *Service) DeleteReview(ctx context.Context, actor *model.User, productID model.ProductID, reviewID model.ReviewID) (*model.Product, error) {
	product, err := s.storage.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	review := product.GetReview(reviewID)
	if review == nil {
		return nil, model.ErrReviewNotFound
	}
	if actor.Role != model.RoleAdmin && review.UserID != actor.ID {
		return nil, model.ErrForbidden
	}

	product.RemoveReview(reviewID)
	product.UpdatedAt = s.clock.Now()
	if err := s.storage.SaveProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *Service) uploadImages(ctx context.Context, images []media.Object) ([]model.MediaRef, error) {
	refs := make([]model.MediaRef, 0, len(images))
	for _, img := range images {
		img.Kind = media.KindImage
		ref, err := s.media.Upload(ctx, img)
		if err != nil {
			s.releaseImages(ctx, refs)
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (s *Service) releaseImages(ctx context.Context, refs []model.MediaRef) {
	for _, ref := range refs {
		if err := s.media.Delete(ctx, ref.PublicID); err != nil {
			s.logger.WarnContext(ctx, "failed to delete media",
				slog.String("public_id", ref.PublicID),
				slog.Any("error", err),
			)
		}
	}
}
