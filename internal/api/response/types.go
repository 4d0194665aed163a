package response

import (
	"time"

	"github.com/mcoot/coursehub/internal/model"
	"github.com/mcoot/coursehub/internal/services/auth"
	"github.com/mcoot/coursehub/internal/services/videos"
)

// Media represents a stored media object
type Media struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// MediaFromModel converts model.MediaRef
func MediaFromModel(m model.MediaRef) Media {
	return Media{PublicID: m.PublicID, URL: m.URL}
}

// User represents a user in API responses. The password hash and any
// pending reset code are never included.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Avatar    Media     `json:"avatar"`
	Videos    []string  `json:"videos"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u *model.User) User {
	videoIDs := make([]string, len(u.Videos))
	for i, v := range u.Videos {
		videoIDs[i] = string(v)
	}
	return User{
		ID:        string(u.ID),
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		Avatar:    MediaFromModel(u.Avatar),
		Videos:    videoIDs,
		CreatedAt: u.CreatedAt,
	}
}

// AuthResponse is the response for endpoints that start a session
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Success: true,
		Token:   s.Token,
		User:    UserFromModel(s.User),
	}
}

// MessageResponse acknowledges a request with a human-readable message
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// UserResponse wraps a single user
type UserResponse struct {
	Success bool `json:"success"`
	User    User `json:"user"`
}

// UsersResponse wraps a list of users
type UsersResponse struct {
	Success bool   `json:"success"`
	Users   []User `json:"users"`
}

// UsersFromModel converts a slice of users
func UsersFromModel(users []*model.User) []User {
	out := make([]User, len(users))
	for i, u := range users {
		out[i] = UserFromModel(u)
	}
	return out
}

// Tutor is the public view of a video's owner
type Tutor struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Video represents a video in API responses
type Video struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Video       Media     `json:"video"`
	Tutor       Tutor     `json:"tutor"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// VideoFromModel converts a model.Video
func VideoFromModel(v *model.Video) Video {
	return Video{
		ID:          string(v.ID),
		Title:       v.Title,
		Description: v.Description,
		Video:       MediaFromModel(v.Media),
		Tutor:       Tutor{ID: string(v.TutorID)},
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

// VideoFromEntry converts a video joined with its tutor
func VideoFromEntry(e videos.Entry) Video {
	v := VideoFromModel(e.Video)
	v.Tutor.Name = e.TutorName
	v.Tutor.Email = e.TutorEmail
	return v
}

// VideoResponse wraps a single video
type VideoResponse struct {
	Success bool  `json:"success"`
	Video   Video `json:"video"`
}

// VideosResponse wraps a list of videos
type VideosResponse struct {
	Success bool    `json:"success"`
	Videos  []Video `json:"videos"`
}

// Review represents a product review
type Review struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewsFromModel converts product reviews
func ReviewsFromModel(reviews []model.Review) []Review {
	out := make([]Review, len(reviews))
	for i, r := range reviews {
		out[i] = Review{
			ID:        string(r.ID),
			User:      string(r.UserID),
			Name:      r.Name,
			Rating:    r.Rating,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
		}
	}
	return out
}

// Product represents a product in API responses
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Category    string    `json:"category"`
	Stock       int       `json:"stock"`
	Images      []Media   `json:"images"`
	Ratings     float64   `json:"ratings"`
	NumReviews  int       `json:"numOfReviews"`
	Reviews     []Review  `json:"reviews"`
	CreatedBy   string    `json:"user"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductFromModel converts a model.Product
func ProductFromModel(p *model.Product) Product {
	images := make([]Media, len(p.Images))
	for i, img := range p.Images {
		images[i] = MediaFromModel(img)
	}
	return Product{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Stock:       p.Stock,
		Images:      images,
		Ratings:     p.Rating,
		NumReviews:  p.NumReviews,
		Reviews:     ReviewsFromModel(p.Reviews),
		CreatedBy:   string(p.CreatedBy),
		CreatedAt:   p.CreatedAt,
	}
}

// ProductResponse wraps a single product
type ProductResponse struct {
	Success bool    `json:"success"`
	Product Product `json:"product"`
}

// ProductsResponse is one page of a product listing
type ProductsResponse struct {
	Success               bool      `json:"success"`
	Products              []Product `json:"products"`
	ProductsCount         int       `json:"productsCount"`
	ResultPerPage         int       `json:"resultPerPage"`
	FilteredProductsCount int       `json:"filteredProductsCount"`
}

// ProductsFromPage converts a product page
func ProductsFromPage(page *model.ProductPage, perPage int) ProductsResponse {
	products := make([]Product, len(page.Products))
	for i, p := range page.Products {
		products[i] = ProductFromModel(p)
	}
	return ProductsResponse{
		Success:               true,
		Products:              products,
		ProductsCount:         page.TotalCount,
		ResultPerPage:         perPage,
		FilteredProductsCount: page.FilteredCount,
	}
}

// ReviewsResponse wraps the reviews of a product
type ReviewsResponse struct {
	Success bool     `json:"success"`
	Reviews []Review `json:"reviews"`
}

// HealthResponse reports service liveness
type HealthResponse struct {
	Status string `json:"status"`
}
