package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/coursehub/internal/api/apierr"
	"github.com/mcoot/coursehub/internal/api/response"
	"github.com/mcoot/coursehub/internal/factory"
	"github.com/mcoot/coursehub/internal/media"
	"github.com/mcoot/coursehub/internal/middleware"
	"github.com/mcoot/coursehub/internal/model"
)

// testServer wraps the router of a TestApp
type testServer struct {
	t       *testing.T
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithApp(t, factory.NewTestApp())
}

func newTestServerWithApp(t *testing.T, app *factory.TestApp) *testServer {
	t.Helper()
	t.Cleanup(func() { _ = app.Close() })
	return &testServer{t: t, handler: app.Handler(), app: app}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) multipart(method, path string, fields map[string]string, fileField, fileName, content, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(ts.t, w.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, fileName)
		require.NoError(ts.t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(ts.t, err)
	}
	require.NoError(ts.t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func assertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rr.Code, rr.Body.String())
	resp := decode[apierr.ErrorResponse](t, rr)
	assert.False(t, resp.Success)
	assert.Equal(t, code, resp.Code)
}

// registerUser registers through the API and optionally promotes the role
func registerUser(t *testing.T, ts *testServer, name, email string, role model.Role) (string, response.User) {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	resp := decode[response.AuthResponse](t, rr)

	if role != model.RoleUser {
		_, err := ts.app.UsersService.UpdateRole(t.Context(), model.UserID(resp.User.ID), role)
		require.NoError(t, err)
		resp.User.Role = string(role)
	}
	return resp.Token, resp.User
}

func tokenCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	return nil
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/nope", nil, "")
	assertError(t, rr, http.StatusNotFound, apierr.CodeNotFound)
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/register", map[string]string{
		"name":     "Alice",
		"email":    "Alice@Example.com",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	resp := decode[response.AuthResponse](t, rr)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.Equal(t, "user", resp.User.Role)
	assert.Equal(t, "sample_avatar", resp.User.Avatar.PublicID)

	// The hash never leaves the server
	assert.NotContains(t, rr.Body.String(), "password")
	assert.NotContains(t, rr.Body.String(), "$2a$")

	cookie := tokenCookie(rr)
	require.NotNil(t, cookie)
	assert.Equal(t, resp.Token, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.WithinDuration(t, ts.app.MockClock.Now().Add(24*time.Hour), cookie.Expires, time.Second)
}

func TestRegisterFailures(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "Alice", "alice@example.com", model.RoleUser)

	rr := ts.request(http.MethodPost, "/api/v1/register", map[string]string{
		"name": "Other", "email": "ALICE@example.com", "password": "password123",
	}, "")
	assertError(t, rr, http.StatusConflict, apierr.CodeEmailExists)

	rr = ts.request(http.MethodPost, "/api/v1/register", map[string]string{
		"name": "Bob", "email": "bob@example.com", "password": "short",
	}, "")
	assertError(t, rr, http.StatusBadRequest, apierr.CodeInvalidRequest)
	assert.Equal(t, "Password should be greater than 8 characters", decode[apierr.ErrorResponse](t, rr).Message)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/register", strings.NewReader("{not json"))
	rr = httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	assertError(t, rr, http.StatusBadRequest, apierr.CodeInvalidRequest)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	_, user := registerUser(t, ts, "Alice", "alice@example.com", model.RoleUser)

	for _, path := range []string{"/api/v1/login", "/api/v1/admin/login", "/api/v1/tutor/login"} {
		rr := ts.request(http.MethodPost, path, map[string]string{
			"email": "alice@example.com", "password": "password123",
		}, "")
		require.Equal(t, http.StatusOK, rr.Code, path)
		resp := decode[response.AuthResponse](t, rr)
		assert.Equal(t, user.ID, resp.User.ID)
		assert.NotNil(t, tokenCookie(rr))
	}

	rr := ts.request(http.MethodPost, "/api/v1/login", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	}, "")
	assertError(t, rr, http.StatusUnauthorized, apierr.CodeInvalidCredentials)

	rr = ts.request(http.MethodPost, "/api/v1/login", map[string]string{
		"email": "nobody@example.com", "password": "password123",
	}, "")
	assertError(t, rr, http.StatusUnauthorized, apierr.CodeInvalidCredentials)

	rr = ts.request(http.MethodPost, "/api/v1/login", map[string]string{"email": "alice@example.com"}, "")
	assertError(t, rr, http.StatusBadRequest, apierr.CodeInvalidRequest)
}

func TestMeRequiresSession(t *testing.T) {
	ts := newTestServer(t)
	token, _ := registerUser(t, ts, "Alice", "alice@example.com", model.RoleUser)

	rr := ts.request(http.MethodGet, "/api/v1/me", nil, "")
	assertError(t, rr, http.StatusUnauthorized, apierr.CodeUnauthorized)

	rr = ts.request(http.MethodGet, "/api/v1/me", nil, "garbage")
	assertError(t, rr, http.StatusUnauthorized, apierr.CodeUnauthorized)

	rr = ts.request(http.MethodGet, "/api/v1/me", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Alice", decode[response.UserResponse](t, rr).User.Name)

	// Cookie works when no header is sent
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rr = httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	// Sessions expire
	ts.app.MockClock.Advance(24*time.Hour + time.Second)
	rr = ts.request(http.MethodGet, "/api/v1/me", nil, token)
	assertError(t, rr, http.StatusUnauthorized, apierr.CodeUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	ts := newTestServer(t)
	token, _ := registerUser(t, ts, "Alice", "alice@example.com", model.RoleUser)
	registerUser(t, ts, "Bob", "bob@example.com", model.RoleUser)

	rr := ts.request(http.MethodPut, "/api/v1/me/update", map[string]string{"name": "Alicia"}, token)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[response.UserResponse](t, rr)
	assert.Equal(t, "Alicia", resp.User.Name)
	assert.Equal(t, "alice@example.com", resp.User.Email)

	rr = ts.request(http.MethodPut, "/api/v1/me/update", map[string]string{"email": "bob@example.com"}, token)
	assertError(t, rr, http.StatusConflict, apierr.CodeEmailExists)

	rr = ts.multipart(http.MethodPut, "/api/v1/me/update", map[string]string{"name": "Ali"}, "avatar", "me.png", "png bytes", token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp = decode[response.UserResponse](t, rr)
	assert.Equal(t, "Ali", resp.User.Name)
	assert.True(t, strings.HasPrefix(resp.User.Avatar.PublicID, "avatar-"))
}

func TestForgotAndResetPassword(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "Alice", "alice@example.com", model.RoleUser)
	ts.app.MockRandom.QueueDigits("12345")

	rr := ts.request(http.MethodPost, "/api/v1/password/forgot", map[string]string{"email": "alice@example.com"}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	msg := decode[response.MessageResponse](t, rr)
	assert.True(t, msg.Success)
	assert.Equal(t, "Email sent to alice@example.com successfully", msg.Message)

	sent, ok := ts.app.MockSender.Last()
	require.True(t, ok)
	assert.Equal(t, "Password Recovery", sent.Subject)
	assert.Contains(t, sent.Body, "12345")

	// Mismatched confirmation leaves the code usable
	rr = ts.request(http.MethodPut, "/api/v1/password/reset", map[string]string{
		"otp": "12345", "password": "new-password", "confirmPassword": "other-password",
	}, "")
	assertError(t, rr, http.StatusBadRequest, apierr.CodePasswordMismatch)

	rr = ts.request(http.MethodPut, "/api/v1/password/reset", map[string]string{
		"otp": "99999", "password": "new-password", "confirmPassword": "new-password",
	}, "")
	assertError(t, rr, http.StatusBadRequest, apierr.CodeInvalidChallenge)

	rr = ts.request(http.MethodPut, "/api/v1/password/reset", map[string]string{
		"otp": "12345", "password": "new-password", "confirmPassword": "new-password",
	}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode[response.AuthResponse](t, rr)
	assert.NotEmpty(t, resp.Token)
	assert.NotNil(t, tokenCookie(rr))

	// Single use
	rr = ts.request(http.MethodPut, "/api/v1/password/reset", map[string]string{
		"otp": "12345", "password": "new-password", "confirmPassword": "new-password",
	}, "")
	assertError(t, rr, http.StatusBadRequest, apierr.CodeInvalidChallenge)

	rr = ts.request(http.MethodPost, "/api/v1/login", map[string]string{
		"email": "alice@example.com", "password": "new-password",
	}, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestResetCodeExpires(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "Alice", "alice@example.com", model.RoleUser)
	ts.app.MockRandom.QueueDigits("54321")

	rr := ts.request(http.MethodPost, "/api/v1/password/forgot", map[string]string{"email": "alice@example.com"}, "")
	require.Equal(t, http.StatusOK, rr.Code)

	ts.app.MockClock.Advance(15 * time.Minute)
	rr = ts.request(http.MethodPut, "/api/v1/password/reset", map[string]string{
		"otp": "54321", "password": "new-password", "confirmPassword": "new-password",
	}, "")
	assertError(t, rr, http.StatusBadRequest, apierr.CodeChallengeExpired)
}

func TestForgotPasswordFailures(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "Alice", "alice@example.com", model.RoleUser)

	rr := ts.request(http.MethodPost, "/api/v1/password/forgot", map[string]string{"email": "nobody@example.com"}, "")
	assertError(t, rr, http.StatusNotFound, apierr.CodeUserNotFound)

	rr = ts.request(http.MethodPost, "/api/v1/password/forgot", map[string]string{}, "")
	assertError(t, rr, http.StatusBadRequest, apierr.CodeInvalidRequest)

	ts.app.MockSender.FailWith(errors.New("smtp: connection refused"))
	rr = ts.request(http.MethodPost, "/api/v1/password/forgot", map[string]string{"email": "alice@example.com"}, "")
	assertError(t, rr, http.StatusInternalServerError, apierr.CodeDeliveryFailed)
	assert.NotContains(t, rr.Body.String(), "connection refused")

	stored, err := ts.app.Storage.GetUserByEmail(t.Context(), "alice@example.com")
	require.NoError(t, err)
	assert.True(t, stored.Reset.IsZero())
}

func TestForgotPasswordIsRateLimited(t *testing.T) {
	cfg := factory.TestConfig()
	cfg.RateLimit.Limit = 2
	cfg.RateLimit.Window = time.Minute
	ts := newTestServerWithApp(t, factory.NewTestAppWithConfig(cfg))
	registerUser(t, ts, "Alice", "alice@example.com", model.RoleUser)

	for i := 0; i < 2; i++ {
		rr := ts.request(http.MethodPost, "/api/v1/password/forgot", map[string]string{"email": "alice@example.com"}, "")
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := ts.request(http.MethodPost, "/api/v1/password/forgot", map[string]string{"email": "alice@example.com"}, "")
	assertError(t, rr, http.StatusTooManyRequests, apierr.CodeRateLimited)
	assert.Len(t, ts.app.MockSender.Sent(), 2)

	// Login has its own budget
	rr = ts.request(http.MethodPost, "/api/v1/login", map[string]string{
		"email": "alice@example.com", "password": "password123",
	}, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	ts.app.MockClock.Advance(time.Minute)
	rr = ts.request(http.MethodPost, "/api/v1/password/forgot", map[string]string{"email": "alice@example.com"}, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUpdatePassword(t *testing.T) {
	ts := newTestServer(t)
	token, _ := registerUser(t, ts, "Alice", "alice@example.com", model.RoleUser)

	rr := ts.request(http.MethodPut, "/api/v1/password/update", map[string]string{
		"oldPassword": "wrong-password", "newPassword": "new-password", "confirmPassword": "new-password",
	}, token)
	assertError(t, rr, http.StatusUnauthorized, apierr.CodeInvalidCredentials)

	rr = ts.request(http.MethodPut, "/api/v1/password/update", map[string]string{
		"oldPassword": "password123", "newPassword": "new-password", "confirmPassword": "nope-nope",
	}, token)
	assertError(t, rr, http.StatusBadRequest, apierr.CodePasswordMismatch)

	rr = ts.request(http.MethodPut, "/api/v1/password/update", map[string]string{
		"oldPassword": "password123", "newPassword": "new-password", "confirmPassword": "new-password",
	}, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, decode[response.AuthResponse](t, rr).Token)

	rr = ts.request(http.MethodPut, "/api/v1/password/update", nil, "")
	assertError(t, rr, http.StatusUnauthorized, apierr.CodeUnauthorized)
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/logout", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Logged Out", decode[response.MessageResponse](t, rr).Message)

	cookie := tokenCookie(rr)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.MaxAge < 0)
}

func TestAdminUsers(t *testing.T) {
	ts := newTestServer(t)
	adminToken, _ := registerUser(t, ts, "Ada", "ada@example.com", model.RoleAdmin)
	userToken, user := registerUser(t, ts, "Bob", "bob@example.com", model.RoleUser)

	rr := ts.request(http.MethodGet, "/api/v1/admin/users", nil, userToken)
	assertError(t, rr, http.StatusForbidden, apierr.CodeForbidden)

	rr = ts.request(http.MethodGet, "/api/v1/admin/users", nil, adminToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[response.UsersResponse](t, rr).Users, 2)
	assert.NotContains(t, rr.Body.String(), "$2a$")

	rr = ts.request(http.MethodGet, "/api/v1/admin/user/"+user.ID, nil, adminToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Bob", decode[response.UserResponse](t, rr).User.Name)

	rr = ts.request(http.MethodPut, "/api/v1/admin/user/"+user.ID, map[string]string{"role": "superuser"}, adminToken)
	assertError(t, rr, http.StatusBadRequest, apierr.CodeInvalidRequest)

	rr = ts.request(http.MethodPut, "/api/v1/admin/user/"+user.ID, map[string]string{"role": "tutor"}, adminToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "tutor", decode[response.UserResponse](t, rr).User.Role)

	rr = ts.request(http.MethodDelete, "/api/v1/admin/user/"+user.ID, nil, adminToken)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/admin/user/"+user.ID, nil, adminToken)
	assertError(t, rr, http.StatusNotFound, apierr.CodeUserNotFound)

	// The deleted user's session no longer authenticates
	rr = ts.request(http.MethodGet, "/api/v1/me", nil, userToken)
	assertError(t, rr, http.StatusUnauthorized, apierr.CodeUnauthorized)
}

func TestVideos(t *testing.T) {
	ts := newTestServer(t)
	tutorToken, tutor := registerUser(t, ts, "Tina", "tina@example.com", model.RoleTutor)
	otherToken, _ := registerUser(t, ts, "Tom", "tom@example.com", model.RoleTutor)
	userToken, _ := registerUser(t, ts, "Bob", "bob@example.com", model.RoleUser)

	fields := map[string]string{"title": "Intro", "description": "First lesson"}

	rr := ts.multipart(http.MethodPost, "/api/v1/video/upload", fields, "video", "intro.mp4", "bytes", userToken)
	assertError(t, rr, http.StatusForbidden, apierr.CodeForbidden)

	rr = ts.multipart(http.MethodPost, "/api/v1/video/upload", fields, "", "", "", tutorToken)
	assertError(t, rr, http.StatusBadRequest, apierr.CodeInvalidRequest)

	rr = ts.multipart(http.MethodPost, "/api/v1/video/upload", fields, "video", "intro.mp4", "bytes", tutorToken)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	video := decode[response.VideoResponse](t, rr).Video
	assert.Equal(t, "Intro", video.Title)
	assert.Equal(t, tutor.ID, video.Tutor.ID)

	data, ok := ts.app.MockUploader.Content(video.Video.PublicID)
	require.True(t, ok)
	assert.Equal(t, "bytes", string(data))

	rr = ts.request(http.MethodGet, "/api/v1/videos", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[response.VideosResponse](t, rr).Videos
	require.Len(t, list, 1)
	assert.Equal(t, "Tina", list[0].Tutor.Name)
	assert.Equal(t, "tina@example.com", list[0].Tutor.Email)

	rr = ts.request(http.MethodGet, "/api/v1/user/videos", nil, tutorToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[response.VideosResponse](t, rr).Videos, 1)

	rr = ts.request(http.MethodGet, "/api/v1/video/"+video.ID, nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPut, "/api/v1/video/update/"+video.ID, map[string]string{"title": "Hijacked"}, otherToken)
	assertError(t, rr, http.StatusForbidden, apierr.CodeForbidden)

	rr = ts.request(http.MethodPut, "/api/v1/video/update/"+video.ID, map[string]string{"title": "Intro to Go"}, tutorToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Intro to Go", decode[response.VideoResponse](t, rr).Video.Title)

	rr = ts.request(http.MethodDelete, "/api/v1/video/delete/"+video.ID, nil, tutorToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, ts.app.MockUploader.Deleted(), video.Video.PublicID)

	rr = ts.request(http.MethodGet, "/api/v1/video/"+video.ID, nil, "")
	assertError(t, rr, http.StatusNotFound, apierr.CodeVideoNotFound)
}

func TestProductsAndReviews(t *testing.T) {
	ts := newTestServer(t)
	adminToken, _ := registerUser(t, ts, "Ada", "ada@example.com", model.RoleAdmin)
	bobToken, _ := registerUser(t, ts, "Bob", "bob@example.com", model.RoleUser)
	catToken, _ := registerUser(t, ts, "Cat", "cat@example.com", model.RoleUser)

	create := map[string]any{
		"name": "Go Course", "description": "Learn Go", "price": 4999, "category": "courses", "stock": 10,
	}
	rr := ts.request(http.MethodPost, "/api/v1/admin/product/new", create, bobToken)
	assertError(t, rr, http.StatusForbidden, apierr.CodeForbidden)

	rr = ts.request(http.MethodPost, "/api/v1/admin/product/new", create, adminToken)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	product := decode[response.ProductResponse](t, rr).Product

	rr = ts.multipart(http.MethodPost, "/api/v1/admin/product/new", map[string]string{
		"name": "Rust Course", "description": "Learn Rust", "price": "7999", "category": "courses", "stock": "5",
	}, "images", "cover.png", "png", adminToken)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Len(t, decode[response.ProductResponse](t, rr).Product.Images, 1)

	rr = ts.request(http.MethodGet, "/api/v1/products?keyword=GO&price[lte]=5000", nil, "")
	assertError(t, rr, http.StatusUnauthorized, apierr.CodeUnauthorized)

	rr = ts.request(http.MethodGet, "/api/v1/products?keyword=GO&price[lte]=5000", nil, bobToken)
	require.Equal(t, http.StatusOK, rr.Code)
	page := decode[response.ProductsResponse](t, rr)
	assert.Equal(t, 2, page.ProductsCount)
	assert.Equal(t, 1, page.FilteredProductsCount)
	assert.Equal(t, 8, page.ResultPerPage)
	require.Len(t, page.Products, 1)
	assert.Equal(t, product.ID, page.Products[0].ID)

	rr = ts.request(http.MethodGet, "/api/v1/products?price[gte]=abc", nil, bobToken)
	assertError(t, rr, http.StatusBadRequest, apierr.CodeInvalidRequest)

	rr = ts.request(http.MethodPut, "/api/v1/review", map[string]any{"productId": product.ID, "rating": 6, "comment": "x"}, bobToken)
	assertError(t, rr, http.StatusBadRequest, apierr.CodeInvalidRequest)

	rr = ts.request(http.MethodPut, "/api/v1/review", map[string]any{"productId": product.ID, "rating": 4, "comment": "good"}, bobToken)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = ts.request(http.MethodPut, "/api/v1/review", map[string]any{"productId": product.ID, "rating": 2, "comment": "meh"}, catToken)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/product/"+product.ID, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[response.ProductResponse](t, rr).Product
	assert.Equal(t, 2, got.NumReviews)
	assert.InDelta(t, 3.0, got.Ratings, 0.001)

	rr = ts.request(http.MethodGet, "/api/v1/reviews?id="+product.ID, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	reviews := decode[response.ReviewsResponse](t, rr).Reviews
	require.Len(t, reviews, 2)

	var bobReview string
	for _, r := range reviews {
		if r.Name == "Bob" {
			bobReview = r.ID
		}
	}
	require.NotEmpty(t, bobReview)

	rr = ts.request(http.MethodDelete, "/api/v1/reviews?productId="+product.ID+"&id="+bobReview, nil, catToken)
	assertError(t, rr, http.StatusForbidden, apierr.CodeForbidden)

	rr = ts.request(http.MethodDelete, "/api/v1/reviews?productId="+product.ID+"&id="+bobReview, nil, bobToken)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPut, "/api/v1/admin/product/"+product.ID, map[string]any{"stock": 0}, adminToken)
	require.Equal(t, http.StatusOK, rr.Code)
	updated := decode[response.ProductResponse](t, rr).Product
	assert.Equal(t, 0, updated.Stock)
	assert.Equal(t, "Go Course", updated.Name)
	assert.Equal(t, 1, updated.NumReviews)

	rr = ts.request(http.MethodDelete, "/api/v1/admin/product/"+product.ID, nil, adminToken)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/product/"+product.ID, nil, "")
	assertError(t, rr, http.StatusNotFound, apierr.CodeProductNotFound)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.request(http.MethodGet, "/api/v1/health", nil, "")
	ts.request(http.MethodPost, "/api/v1/password/forgot", map[string]string{"email": "nobody@example.com"}, "")

	rr := ts.request(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `coursehub_http_requests_total{method="GET",route="/api/v1/health",status="200"} 1`)
	assert.Contains(t, body, `coursehub_password_reset_requests_total{outcome="unknown_email"} 1`)
}

func TestUploadFailureIsUpstreamError(t *testing.T) {
	ts := newTestServer(t)
	token, _ := registerUser(t, ts, "Tara", "tara@example.com", model.RoleTutor)
	ts.app.MockUploader.UploadErr = fmt.Errorf("%w: bucket unavailable", media.ErrUploadFailed)

	rr := ts.multipart(http.MethodPost, "/api/v1/video/upload",
		map[string]string{"title": "Intro", "description": "First lesson"},
		"video", "intro.mp4", "frames", token)
	assertError(t, rr, http.StatusInternalServerError, apierr.CodeUpstreamError)
	assert.NotContains(t, rr.Body.String(), "bucket unavailable")
}

func TestLargeUploadLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TMPDIR", dir)

	ts := newTestServer(t)
	token, _ := registerUser(t, ts, "Tara", "tara@example.com", model.RoleTutor)
	fields := map[string]string{"title": "Long lecture", "description": "Spills to disk"}
	content := strings.Repeat("x", 40<<20)

	rr := ts.multipart(http.MethodPost, "/api/v1/video/upload", fields, "video", "long.mp4", content, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	ts.app.MockUploader.UploadErr = fmt.Errorf("%w: bucket unavailable", media.ErrUploadFailed)
	rr = ts.multipart(http.MethodPost, "/api/v1/video/upload", fields, "video", "long.mp4", content, token)
	assertError(t, rr, http.StatusInternalServerError, apierr.CodeUpstreamError)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
