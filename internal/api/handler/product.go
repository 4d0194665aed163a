package handler

import (
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/coursehub/internal/api/middleware"
	"github.com/mcoot/coursehub/internal/api/request"
	"github.com/mcoot/coursehub/internal/api/response"
	"github.com/mcoot/coursehub/internal/media"
	"github.com/mcoot/coursehub/internal/model"
	"github.com/mcoot/coursehub/internal/services/products"
)

// maxProductBytes bounds product bodies that carry images
const maxProductBytes = 50 << 20

// ProductHandler handles product catalogue and review endpoints
type ProductHandler struct {
	products *products.Service
}

// NewProductHandler creates a new product handler
func NewProductHandler(productsService *products.Service) *ProductHandler {
	return &ProductHandler{products: productsService}
}

// List handles GET /api/v1/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := parseProductQuery(r.URL.Query())
	if err != nil {
		WriteError(w, err)
		return
	}

	page, err := h.products.List(r.Context(), query)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ProductsFromPage(page, query.Limit()))
}

// Get handles GET /api/v1/product/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.Get(r.Context(), model.ProductID(mux.Vars(r)["id"]))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ProductResponse{Success: true, Product: response.ProductFromModel(product)})
}

// Create handles POST /api/v1/admin/product/new
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	admin := middleware.MustGetUser(r.Context())

	defer removeMultipartForm(r)
	req, images, files, err := readProductRequest(w, r)
	if err != nil {
		WriteError(w, err)
		return
	}
	defer closeAll(files)

	in := products.Input{}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Price != nil {
		in.Price = *req.Price
	}
	if req.Category != nil {
		in.Category = *req.Category
	}
	if req.Stock != nil {
		in.Stock = *req.Stock
	}

	product, err := h.products.Create(r.Context(), admin.ID, in, images)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.ProductResponse{Success: true, Product: response.ProductFromModel(product)})
}

// Update handles PUT /api/v1/admin/product/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer removeMultipartForm(r)
	req, images, files, err := readProductRequest(w, r)
	if err != nil {
		WriteError(w, err)
		return
	}
	defer closeAll(files)

	patch := products.Patch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
	}

	product, err := h.products.Update(r.Context(), model.ProductID(mux.Vars(r)["id"]), patch, images)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ProductResponse{Success: true, Product: response.ProductFromModel(product)})
}

// Delete handles DELETE /api/v1/admin/product/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), model.ProductID(mux.Vars(r)["id"])); err != nil {
		WriteError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Product Delete Successfully")
}

// UpsertReview handles PUT /api/v1/review
func (h *ProductHandler) UpsertReview(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.ReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.ProductID == "" {
		WriteError(w, NewInvalidRequestError("productId is required"))
		return
	}

	if _, err := h.products.UpsertReview(r.Context(), user, model.ProductID(req.ProductID), req.Rating, req.Comment); err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.MessageResponse{Success: true, Message: "Review saved"})
}

// ListReviews handles GET /api/v1/reviews?id=
func (h *ProductHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		WriteError(w, NewInvalidRequestError("id is required"))
		return
	}

	reviews, err := h.products.ListReviews(r.Context(), model.ProductID(id))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ReviewsResponse{Success: true, Reviews: response.ReviewsFromModel(reviews)})
}

// DeleteReview handles DELETE /api/v1/reviews?productId=&id=
func (h *ProductHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	actor := middleware.MustGetUser(r.Context())

	productID := r.URL.Query().Get("productId")
	reviewID := r.URL.Query().Get("id")
	if productID == "" || reviewID == "" {
		WriteError(w, NewInvalidRequestError("productId and id are required"))
		return
	}

	if _, err := h.products.DeleteReview(r.Context(), actor, model.ProductID(productID), model.ReviewID(reviewID)); err != nil {
		WriteError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Review deleted")
}

// readProductRequest reads product fields from JSON, or from a multipart
// form whose "images" files are returned alongside
func readProductRequest(w http.ResponseWriter, r *http.Request) (request.ProductRequest, []media.Object, []multipart.File, error) {
	var req request.ProductRequest
	if !isMultipart(r) {
		return req, nil, nil, decodeJSON(w, r, &req)
	}

	if err := parseMultipart(w, r, maxProductBytes); err != nil {
		return req, nil, nil, err
	}

	form := r.MultipartForm.Value
	if v, ok := formValue(form, "name"); ok {
		req.Name = &v
	}
	if v, ok := formValue(form, "description"); ok {
		req.Description = &v
	}
	if v, ok := formValue(form, "category"); ok {
		req.Category = &v
	}
	if v, ok := formValue(form, "price"); ok {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return req, nil, nil, NewInvalidRequestError("price must be a whole number")
		}
		req.Price = &price
	}
	if v, ok := formValue(form, "stock"); ok {
		stock, err := strconv.Atoi(v)
		if err != nil {
			return req, nil, nil, NewInvalidRequestError("stock must be a whole number")
		}
		req.Stock = &stock
	}

	images, files, err := formFiles(r, "images")
	if err != nil {
		return req, nil, nil, err
	}
	return req, images, files, nil
}

func formValue(form map[string][]string, key string) (string, bool) {
	values, ok := form[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// parseProductQuery reads keyword, category, price[gte], price[lte] and page
func parseProductQuery(values url.Values) (model.ProductQuery, error) {
	query := model.ProductQuery{
		Keyword:  values.Get("keyword"),
		Category: values.Get("category"),
	}

	for key, dst := range map[string]**int64{"price[gte]": &query.MinPrice, "price[lte]": &query.MaxPrice} {
		raw := values.Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return query, NewInvalidRequestError(key + " must be a whole number")
		}
		*dst = &v
	}

	if raw := values.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return query, NewInvalidRequestError("page must be a positive number")
		}
		if page > model.MaxProductPage {
			return query, NewInvalidRequestError("page is out of range")
		}
		query.Page = page
	}

	return query, nil
}
