package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"colloquy/internal/config"
	"colloquy/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret: "test-secret-key-at-least-32-chars-long",
		Env:       "test",
	}
}

func TestSignup(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]string
		mockSetup      func(m *MockUserRepository)
		expectedStatus int
	}{
		{
			name: "Success",
			body: map[string]string{
				"username": "new_user",
				"email":    "new@example.com",
				"password": "SecurePass12!@",
			},
			mockSetup: func(m *MockUserRepository) {
				m.On("GetByUsername", mock.Anything, "new_user").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
					args.Get(1).(*models.User).ID = 1
				}).Return(nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Weak password",
			body: map[string]string{
				"username": "new_user",
				"email":    "new@example.com",
				"password": "short",
			},
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Missing fields",
			body: map[string]string{
				"username": "new_user",
			},
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Username taken",
			body: map[string]string{
				"username": "taken",
				"email":    "new@example.com",
				"password": "SecurePass12!@",
			},
			mockSetup: func(m *MockUserRepository) {
				m.On("GetByUsername", mock.Anything, "taken").Return(&models.User{ID: 2, Username: "taken"}, nil)
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.mockSetup(mockRepo)
			s := &Server{config: testConfig(), userRepo: mockRepo}

			app := fiber.New()
			app.Post("/api/auth/signup", s.Signup)

			resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/signup", tt.body))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestLogin(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("SecurePass12!@"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &models.User{ID: 1, Username: "alice", Password: string(hashed), Role: "user"}

	t.Run("Valid credentials", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("GetByUsername", mock.Anything, "alice").Return(stored, nil)
		s := &Server{config: testConfig(), userRepo: mockRepo}

		app := fiber.New()
		app.Post("/api/auth/login", s.Login)

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
			"username": "alice",
			"password": "SecurePass12!@",
		}))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.NotEmpty(t, body.Token)
		assert.Equal(t, "alice", body.User.Username)
	})

	t.Run("Wrong password", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("GetByUsername", mock.Anything, "alice").Return(stored, nil)
		s := &Server{config: testConfig(), userRepo: mockRepo}

		app := fiber.New()
		app.Post("/api/auth/login", s.Login)

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
			"username": "alice",
			"password": "WrongPass12!@",
		}))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Unknown user", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("GetByUsername", mock.Anything, "ghost").Return(nil, gorm.ErrRecordNotFound)
		s := &Server{config: testConfig(), userRepo: mockRepo}

		app := fiber.New()
		app.Post("/api/auth/login", s.Login)

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
			"username": "ghost",
			"password": "SecurePass12!@",
		}))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestAuthRequired(t *testing.T) {
	s := &Server{config: testConfig()}

	newApp := func() *fiber.App {
		app := fiber.New()
		app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
			identity := requesterIdentity(c)
			return c.JSON(identity)
		})
		return app
	}

	t.Run("Missing token", func(t *testing.T) {
		app := newApp()
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Garbage token", func(t *testing.T) {
		app := newApp()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Valid token carries identity", func(t *testing.T) {
		token, err := s.generateToken(&models.User{ID: 42, Username: "alice", Role: "user"})
		require.NoError(t, err)

		app := newApp()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var identity models.Identity
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&identity))
		assert.Equal(t, uint(42), identity.ID)
		assert.Equal(t, "user", identity.Role)
	})

	t.Run("Token signed with another secret is rejected", func(t *testing.T) {
		foreign := &Server{config: &config.Config{JWTSecret: "another-secret-also-32-chars-long!!"}}
		badToken, err := foreign.generateToken(&models.User{ID: 1, Username: "alice"})
		require.NoError(t, err)

		app := newApp()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+badToken)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestOptionalIdentity(t *testing.T) {
	s := &Server{config: testConfig()}

	app := fiber.New()
	app.Get("/open", func(c *fiber.Ctx) error {
		identity := s.optionalIdentity(c)
		return c.JSON(identity)
	})

	t.Run("Anonymous gets zero identity", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/open", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var identity models.Identity
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&identity))
		assert.Equal(t, uint(0), identity.ID)
	})

	t.Run("Valid token is recognized", func(t *testing.T) {
		token, err := s.generateToken(&models.User{ID: 7, Username: "bob", Role: "user"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/open", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var identity models.Identity
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&identity))
		assert.Equal(t, uint(7), identity.ID)
	})

	t.Run("Invalid token degrades to anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/open", nil)
		req.Header.Set("Authorization", "Bearer junk")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var identity models.Identity
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&identity))
		assert.Equal(t, uint(0), identity.ID)
	})
}
