package cli

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/coursehub/internal/api/request"
	"github.com/mcoot/coursehub/internal/api/response"
)

func newProductCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Product catalogue commands",
	}

	cmd.AddCommand(newProductListCmd())
	cmd.AddCommand(newProductGetCmd())
	cmd.AddCommand(newProductCreateCmd())
	cmd.AddCommand(newProductDeleteCmd())

	return cmd
}

func newProductListCmd() *cobra.Command {
	var keyword, category string
	var minPrice, maxPrice int64
	var page int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search the product catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if keyword != "" {
				q.Set("keyword", keyword)
			}
			if category != "" {
				q.Set("category", category)
			}
			if cmd.Flags().Changed("min-price") {
				q.Set("price[gte]", strconv.FormatInt(minPrice, 10))
			}
			if cmd.Flags().Changed("max-price") {
				q.Set("price[lte]", strconv.FormatInt(maxPrice, 10))
			}
			if page > 0 {
				q.Set("page", strconv.Itoa(page))
			}

			path := "/api/v1/products"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var result response.ProductsResponse
			if err := client.Get(path, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&keyword, "keyword", "", "Case-insensitive name search")
	cmd.Flags().StringVar(&category, "category", "", "Exact category")
	cmd.Flags().Int64Var(&minPrice, "min-price", 0, "Minimum price")
	cmd.Flags().Int64Var(&maxPrice, "max-price", 0, "Maximum price")
	cmd.Flags().IntVar(&page, "page", 0, "Page number, starting at 1")

	return cmd
}

func newProductGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get product details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.ProductResponse

			if err := client.Get("/api/v1/product/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newProductCreateCmd() *cobra.Command {
	var name, description, category string
	var price int64
	var stock int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.ProductRequest{
				Name:        &name,
				Description: &description,
				Price:       &price,
				Category:    &category,
				Stock:       &stock,
			}

			var result response.ProductResponse
			if err := client.Post("/api/v1/admin/product/new", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Product name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Product description (required)")
	cmd.Flags().Int64Var(&price, "price", 0, "Price (required)")
	cmd.Flags().StringVar(&category, "category", "", "Category (required)")
	cmd.Flags().IntVar(&stock, "stock", 1, "Units in stock")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("price")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func newProductDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.MessageResponse

			if err := client.Delete("/api/v1/admin/product/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Product review commands",
	}

	cmd.AddCommand(newReviewAddCmd())
	cmd.AddCommand(newReviewListCmd())
	cmd.AddCommand(newReviewDeleteCmd())

	return cmd
}

func newReviewAddCmd() *cobra.Command {
	var req request.ReviewRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create or replace your review of a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.MessageResponse

			if err := client.Put("/api/v1/review", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.ProductID, "product", "", "Product ID (required)")
	cmd.Flags().IntVar(&req.Rating, "rating", 0, "Rating from 1 to 5 (required)")
	cmd.Flags().StringVar(&req.Comment, "comment", "", "Review text")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("rating")

	return cmd
}

func newReviewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <product-id>",
		Short: "List the reviews of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.ReviewsResponse

			q := url.Values{"id": {args[0]}}
			if err := client.Get("/api/v1/reviews?"+q.Encode(), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newReviewDeleteCmd() *cobra.Command {
	var productID, reviewID string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a review",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.MessageResponse

			q := url.Values{"productId": {productID}, "id": {reviewID}}
			if err := client.Delete("/api/v1/reviews?"+q.Encode(), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&productID, "product", "", "Product ID (required)")
	cmd.Flags().StringVar(&reviewID, "id", "", "Review ID (required)")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}
