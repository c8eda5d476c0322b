package handler

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"whiteboard-backend/internal/auth"
	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/repository"
)

// AuthHandler register/login/refresh/logout endpoints. The refresh token
// travels in an HTTP-only cookie; the access token is returned in the body
// and presented via the Authorization header.
type AuthHandler struct {
	users repository.UserRepository
	jwt   *auth.JWTManager
	cfg   config.AuthConfig
}

// NewAuthHandler creates the auth handler
func NewAuthHandler(users repository.UserRepository, jwt *auth.JWTManager, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt, cfg: cfg}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new user account
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return badRequest(c, "valid email is required")
	}
	if req.Name == "" {
		return badRequest(c, "name is required")
	}
	if len(req.Password) < 8 {
		return badRequest(c, "password must be at least 8 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[Auth] Failed to hash password: %v", err)
		return fail(c, err)
	}

	user := &model.User{
		Email:    req.Email,
		Name:     req.Name,
		Password: string(hashed),
	}
	if err := h.users.Create(c.Context(), user); err != nil {
		if err == repository.ErrDuplicate {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "email already registered",
			})
		}
		return fail(c, err)
	}

	log.Printf("[Auth] User %d registered (%s)", user.ID, user.Email)
	return h.issueTokens(c, user, fiber.StatusCreated)
}

// Login verifies credentials and issues a token pair
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	user, err := h.users.FindByEmail(c.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		// Same response for unknown email and wrong password
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "invalid email or password",
		})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "invalid email or password",
		})
	}

	log.Printf("[Auth] User %d logged in", user.ID)
	return h.issueTokens(c, user, fiber.StatusOK)
}

// RefreshToken rotates the token pair from the refresh cookie
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	refresh := c.Cookies("refresh_token")
	if refresh == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "missing refresh token",
		})
	}

	uid, err := h.jwt.ValidateRefreshToken(refresh)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "invalid refresh token",
		})
	}

	user, err := h.users.FindByID(c.Context(), uid)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "user no longer exists",
		})
	}

	return h.issueTokens(c, user, fiber.StatusOK)
}

// Logout clears the refresh cookie
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: "Lax",
	})
	return c.JSON(fiber.Map{
		"success": true,
		"message": "logged out",
	})
}

// GetMe returns the authenticated user's profile
func (h *AuthHandler) GetMe(c *fiber.Ctx) error {
	user, err := h.users.FindByID(c.Context(), userID(c))
	if err != nil {
		if err == repository.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "user not found",
			})
		}
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

func (h *AuthHandler) issueTokens(c *fiber.Ctx, user *model.User, status int) error {
	access, err := h.jwt.GenerateAccessToken(user.ID, user.Email, user.Name)
	if err != nil {
		log.Printf("[Auth] Failed to generate access token: %v", err)
		return fail(c, err)
	}
	refresh, err := h.jwt.GenerateRefreshToken(user.ID)
	if err != nil {
		log.Printf("[Auth] Failed to generate refresh token: %v", err)
		return fail(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refresh,
		Expires:  time.Now().Add(h.cfg.RefreshTokenExpiry),
		HTTPOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: "Lax",
	})

	return c.Status(status).JSON(fiber.Map{
		"success":     true,
		"accessToken": access,
		"user":        user,
	})
}
