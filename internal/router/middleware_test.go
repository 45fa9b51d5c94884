package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/schoolsuite/resultpin/internal/config"
	"github.com/schoolsuite/resultpin/internal/models"
	"github.com/schoolsuite/resultpin/internal/repository"
	"github.com/schoolsuite/resultpin/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

func TestResolveAllowedOrigin(t *testing.T) {
	cases := []struct {
		name             string
		origin           string
		allowed          []string
		allowCredentials bool
		want             string
	}{
		{"wildcard without credentials", "https://app.example.com", []string{"*"}, false, "*"},
		{"wildcard with credentials echoes origin", "https://app.example.com", []string{"*"}, true, "https://app.example.com"},
		{"wildcard with credentials no origin", "", []string{"*"}, true, "*"},
		{"exact match", "https://app.example.com", []string{"https://app.example.com"}, false, "https://app.example.com"},
		{"case insensitive match", "https://App.Example.com", []string{"https://app.example.com"}, false, "https://App.Example.com"},
		{"no match", "https://evil.example.com", []string{"https://app.example.com"}, false, ""},
		{"empty origin no wildcard", "", []string{"https://app.example.com"}, false, ""},
		{"empty allow list", "https://app.example.com", nil, false, ""},
	}
	for _, tc := range cases {
		if got := resolveAllowedOrigin(tc.origin, tc.allowed, tc.allowCredentials); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestRequestIDMiddlewareEchoesHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(requestIDKey))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "known-id")
	r.ServeHTTP(w, req)

	if w.Body.String() != "known-id" {
		t.Fatalf("expected echoed id, got %q", w.Body.String())
	}
	if w.Header().Get(requestIDHeader) != "known-id" {
		t.Fatalf("response header mismatch: %q", w.Header().Get(requestIDHeader))
	}
}

func TestRequestIDMiddlewareGeneratesID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(requestIDKey))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if w.Body.String() == "" {
		t.Fatal("expected a generated request id")
	}
	if w.Header().Get(requestIDHeader) != w.Body.String() {
		t.Fatal("context id and response header disagree")
	}
}

func testAuthConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "middleware-test-secret-key-0123456789"
	cfg.JWT.ExpireHours = 1
	cfg.Security.PasswordPolicy = config.PasswordPolicyConfig{
		MinLength:     8,
		RequireUpper:  true,
		RequireLower:  true,
		RequireNumber: true,
	}
	return cfg
}

func setupAuthMiddlewareTest(t *testing.T) (*gin.Engine, *models.SchoolAdmin, *service.AuthService, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:middleware_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.SchoolAdmin{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := testAuthConfig()
	adminRepo := repository.NewSchoolAdminRepository(db)
	authSvc := service.NewAuthService(cfg, adminRepo)

	hash, err := authSvc.HashPassword("Oldpass123")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	admin := &models.SchoolAdmin{SchoolID: 3, Username: "gatekeeper", PasswordHash: hash}
	if err := db.Create(admin).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}

	r := gin.New()
	r.GET("/protected", JWTAuthMiddleware(cfg.JWT.SecretKey, adminRepo), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"admin_id":  c.GetUint("admin_id"),
			"school_id": c.GetUint("school_id"),
		})
	})
	return r, admin, authSvc, db
}

func doProtected(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddlewareAcceptsValidToken(t *testing.T) {
	r, admin, authSvc, _ := setupAuthMiddlewareTest(t)

	token, _, err := authSvc.GenerateJWT(admin)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	w := doProtected(r, "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"school_id":3`) {
		t.Fatalf("school id missing from context: %s", w.Body.String())
	}
}

func TestJWTAuthMiddlewareRejectsBadHeaders(t *testing.T) {
	r, _, _, _ := setupAuthMiddlewareTest(t)

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer not-a-token"} {
		w := doProtected(r, header)
		if !strings.Contains(w.Body.String(), `"status_code":401`) {
			t.Fatalf("header %q: expected 401 envelope, got %s", header, w.Body.String())
		}
	}
}

func TestJWTAuthMiddlewareRejectsRevokedToken(t *testing.T) {
	r, admin, authSvc, _ := setupAuthMiddlewareTest(t)

	token, _, err := authSvc.GenerateJWT(admin)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	if err := authSvc.ChangePassword(admin.ID, "Oldpass123", "Newpass456"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	w := doProtected(r, "Bearer "+token)
	if !strings.Contains(w.Body.String(), "token revoked") {
		t.Fatalf("expected revoked rejection, got %s", w.Body.String())
	}
}

func TestJWTAuthMiddlewareRejectsWrongAlgorithm(t *testing.T) {
	r, admin, _, _ := setupAuthMiddlewareTest(t)

	// An unsigned token with valid-looking claims must never pass.
	claims := service.JWTClaims{
		AdminID:  admin.ID,
		SchoolID: admin.SchoolID,
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token failed: %v", err)
	}

	w := doProtected(r, "Bearer "+token)
	if !strings.Contains(w.Body.String(), `"status_code":401`) {
		t.Fatalf("none-algorithm token must be rejected, got %s", w.Body.String())
	}
}

func TestKeyByIPAndJSONFieldKeepsBodyReadable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	keyFunc := KeyByIPAndJSONField("pin")

	r := gin.New()
	var gotKey, gotPin string
	r.POST("/check", func(c *gin.Context) {
		gotKey = keyFunc(c)
		var payload struct {
			Pin string `json:"pin"`
		}
		if err := c.ShouldBindJSON(&payload); err != nil {
			t.Fatalf("body must still bind after key extraction: %v", err)
		}
		gotPin = payload.Pin
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(`{"pin":"ABCD111122"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if !strings.HasPrefix(gotKey, "abcd111122|") {
		t.Fatalf("key should start with the lowercased pin: %q", gotKey)
	}
	if gotPin != "ABCD111122" {
		t.Fatalf("handler lost the body: %q", gotPin)
	}
}

func TestKeyByIPAndJSONFieldFallsBackToIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	keyFunc := KeyByIPAndJSONField("pin")

	r := gin.New()
	var gotKey string
	r.POST("/check", func(c *gin.Context) {
		gotKey = keyFunc(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(`{"other":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if gotKey == "" || strings.Contains(gotKey, "|") {
		t.Fatalf("expected bare IP key, got %q", gotKey)
	}
}
