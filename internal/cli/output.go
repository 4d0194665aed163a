package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mcoot/coursehub/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(response.MessageResponse{Success: true, Message: msg})
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.AuthResponse:
		o.printUser(v.User)
		o.printf("Token: %s\n", v.Token)
	case response.UserResponse:
		o.printUser(v.User)
	case response.UsersResponse:
		for _, u := range v.Users {
			o.printf("%s  %-6s  %s <%s>\n", u.ID, u.Role, u.Name, u.Email)
		}
	case response.MessageResponse:
		o.printf("%s\n", v.Message)
	case response.VideoResponse:
		o.printVideo(v.Video)
	case response.VideosResponse:
		for _, vid := range v.Videos {
			o.printf("%s  %s (%s)\n", vid.ID, vid.Title, tutorName(vid.Tutor))
		}
	case response.ProductResponse:
		o.printProduct(v.Product)
	case response.ProductsResponse:
		o.printf("Products: %d of %d\n", len(v.Products), v.FilteredProductsCount)
		for _, p := range v.Products {
			o.printf("  %s  %-24s %8d  %s\n", p.ID, p.Name, p.Price, p.Category)
		}
	case response.ReviewsResponse:
		o.printReviews(v.Reviews)
	case response.HealthResponse:
		o.printf("Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func (o *Output) printUser(u response.User) {
	o.printf("User: %s (%s)\n", u.Name, u.ID)
	o.printf("Email: %s\n", u.Email)
	o.printf("Role: %s\n", u.Role)
	if len(u.Videos) > 0 {
		o.printf("Videos: %s\n", strings.Join(u.Videos, ", "))
	}
}

func (o *Output) printVideo(v response.Video) {
	o.printf("Video: %s (%s)\n", v.Title, v.ID)
	if v.Description != "" {
		o.printf("Description: %s\n", v.Description)
	}
	o.printf("URL: %s\n", v.Video.URL)
	o.printf("Tutor: %s\n", tutorName(v.Tutor))
}

func (o *Output) printProduct(p response.Product) {
	o.printf("Product: %s (%s)\n", p.Name, p.ID)
	o.printf("Category: %s\n", p.Category)
	o.printf("Price: %d\n", p.Price)
	o.printf("Stock: %d\n", p.Stock)
	o.printf("Rating: %.1f (%d reviews)\n", p.Ratings, p.NumReviews)
	if len(p.Reviews) > 0 {
		o.printReviews(p.Reviews)
	}
}

func (o *Output) printReviews(reviews []response.Review) {
	o.printf("Reviews (%d):\n", len(reviews))
	for _, r := range reviews {
		o.printf("  - %s: %d/5 %s\n", r.Name, r.Rating, r.Comment)
	}
}

func tutorName(t response.Tutor) string {
	if t.Name == "" {
		return t.ID
	}
	return t.Name
}
