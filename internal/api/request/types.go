package request

// RegisterRequest is the request body for registering a user
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest is the request body for requesting a reset code
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the request body for redeeming a reset code
type ResetPasswordRequest struct {
	OTP             string `json:"otp"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// UpdatePasswordRequest is the request body for changing a known password
type UpdatePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// UpdateProfileRequest is the request body for editing the caller's profile
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateRoleRequest is the request body for an admin changing a user's role
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateVideoRequest is the request body for editing video details
type UpdateVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ProductRequest is the request body for creating a product, and for
// updating one where nil fields are left unchanged
type ProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	Category    *string `json:"category"`
	Stock       *int    `json:"stock"`
}

// ReviewRequest is the request body for creating or replacing a review
type ReviewRequest struct {
	ProductID string `json:"productId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}
