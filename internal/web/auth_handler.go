package web

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/deanwaring-hub/voicecraft/internal/identity"
	"github.com/deanwaring-hub/voicecraft/internal/poller"
	"github.com/deanwaring-hub/voicecraft/internal/session"
	"github.com/deanwaring-hub/voicecraft/pkg/response"
)

// AuthHandler drives the identity provider flows: registration, confirmation,
// sign-in and sign-out.
type AuthHandler struct {
	provider  identity.Provider
	verifier  identity.TokenVerifier // optional; nil skips signature checks
	store     *session.Store
	jobPoller *poller.Poller
	validate  *validator.Validate
}

func NewAuthHandler(provider identity.Provider, verifier identity.TokenVerifier, store *session.Store, jobPoller *poller.Poller, v *validator.Validate) *AuthHandler {
	return &AuthHandler{
		provider:  provider,
		verifier:  verifier,
		store:     store,
		jobPoller: jobPoller,
		validate:  v,
	}
}

type signUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type confirmRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignUp handles POST /auth/signup
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req signUpRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validate.Struct(&req); err != nil {
		return response.ValidationError(c, "Enter a valid email and a password of at least 8 characters", nil)
	}

	if err := h.provider.SignUp(c.Context(), req.Email, req.Password); err != nil {
		return response.AuthError(c, identity.UserMessage(err))
	}
	return response.OK(c, fiber.Map{"confirmationRequired": true})
}

// Confirm handles POST /auth/confirm
func (h *AuthHandler) Confirm(c *fiber.Ctx) error {
	var req confirmRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validate.Struct(&req); err != nil {
		return response.ValidationError(c, "Enter your email and the confirmation code", nil)
	}

	if err := h.provider.ConfirmSignUp(c.Context(), req.Email, req.Code); err != nil {
		return response.AuthError(c, identity.UserMessage(err))
	}
	return response.OK(c, fiber.Map{"confirmed": true})
}

// Resend handles POST /auth/resend
func (h *AuthHandler) Resend(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validate.Struct(&req); err != nil {
		return response.ValidationError(c, "Enter a valid email", nil)
	}

	if err := h.provider.ResendCode(c.Context(), req.Email); err != nil {
		return response.AuthError(c, identity.UserMessage(err))
	}
	return response.OK(c, fiber.Map{"sent": true})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validate.Struct(&req); err != nil {
		return response.ValidationError(c, "Enter your email and password", nil)
	}

	tokens, err := h.provider.Authenticate(c.Context(), req.Email, req.Password)
	if err != nil {
		return response.AuthError(c, identity.UserMessage(err))
	}

	var claims *identity.Claims
	if h.verifier != nil {
		claims, err = h.verifier.Validate(tokens.IDToken)
	} else {
		claims, err = identity.ParseClaimsUnverified(tokens.IDToken)
	}
	if err != nil {
		return response.AuthError(c, "Sign-in succeeded but the identity token could not be read. Try again.")
	}

	h.store.SetIdentity(session.Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
	})
	h.store.SetBearerToken(tokens.IDToken, tokens.Expiry(time.Now()))

	return response.OK(c, fiber.Map{
		"userId": claims.UserID,
		"email":  claims.Email,
		"name":   claims.Name,
	})
}

// Logout handles POST /auth/logout. Provider sign-out is best effort; the
// local session is always wiped.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if token, ok := h.store.BearerToken(); ok {
		_ = h.provider.SignOut(c.Context(), token)
	}
	h.jobPoller.Stop()
	h.store.Reset()
	return response.NoContent(c)
}
