package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hugh/lead-hunter/internal/auth"
	"github.com/hugh/lead-hunter/internal/database"
	"github.com/hugh/lead-hunter/internal/database/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// every pooled connection would otherwise get its own empty memory database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CreateTestUser creates a user with password "testpassword123"
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("testpassword123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	n := seq.Add(1)
	user := &models.User{
		Username:     fmt.Sprintf("user%d", n),
		Email:        fmt.Sprintf("user%d@example.com", n),
		PasswordHash: hash,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// LeadOption customizes a fixture lead before insert
type LeadOption func(*models.Lead)

// CreateTestLead inserts a lead owned by ownerID with unique email and sensible defaults
func CreateTestLead(t *testing.T, db *gorm.DB, ownerID uint, opts ...LeadOption) *models.Lead {
	t.Helper()

	n := seq.Add(1)
	lead := &models.Lead{
		UserID:    ownerID,
		FirstName: "Lead",
		LastName:  fmt.Sprintf("Number%d", n),
		Email:     fmt.Sprintf("lead%d@example.com", n),
		Phone:     "+1-555-0100",
		Company:   "Globex",
		City:      "Springfield",
		State:     "IL",
		Source:    models.LeadSourceWebsite,
		Status:    models.LeadStatusNew,
		Score:     50,
		LeadValue: 1000,
	}
	for _, opt := range opts {
		opt(lead)
	}

	if err := db.Create(lead).Error; err != nil {
		t.Fatalf("failed to create test lead: %v", err)
	}

	return lead
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 24*time.Hour)
}

// GenerateTestToken generates a valid JWT token for the given user
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID, user.Username, user.Email)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return token
}

// AuthenticatedRequest creates an HTTP request carrying the session cookie
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSetup holds all the common test dependencies
type TestSetup struct {
	DB         *gorm.DB
	JWTService *auth.JWTService
	User       *models.User
	Token      string
}

// NewTestContext creates a complete test setup with DB, user, and token
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	jwtService := CreateTestJWTService()
	user := CreateTestUser(t, db)
	token := GenerateTestToken(t, jwtService, user)

	return &TestSetup{
		DB:         db,
		JWTService: jwtService,
		User:       user,
		Token:      token,
	}
}

// Cleanup closes the test database
func (ts *TestSetup) Cleanup() {
	if ts.DB != nil {
		_ = database.Close(ts.DB)
	}
}
