package handler

import (
	"context"
	"errors"

	"founder-connect/internal/delivery/http/dto"
	"founder-connect/internal/delivery/http/middleware"
	"founder-connect/internal/domain/user"
	"founder-connect/internal/pkg/jwt"
	"founder-connect/internal/pkg/response"
	ucauth "founder-connect/internal/usecase/auth"
	"founder-connect/internal/usecase/otp"

	"github.com/gofiber/fiber/v3"
)

type AuthUsecase interface {
	Register(ctx context.Context, in ucauth.RegisterInput) (user.User, error)
	VerifyOTP(ctx context.Context, email, code string) (ucauth.Session, otp.Result, error)
	ResendOTP(ctx context.Context, email string) error
	Login(ctx context.Context, in ucauth.LoginInput) (ucauth.Session, error)
	Refresh(ctx context.Context, refreshToken string) (jwt.TokenPair, error)
}

type AuthHandler struct {
	uc AuthUsecase
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type resendOTPRequest struct {
	Email string `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func NewAuthHandler(uc AuthUsecase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

func (h *AuthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/register", h.Register)
	r.Post("/verify-otp", h.VerifyOTP)
	r.Post("/resend-otp", h.ResendOTP)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
}

func (h *AuthHandler) Register(c fiber.Ctx) error {
	var req registerRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	usr, err := h.uc.Register(c.Context(), ucauth.RegisterInput{Email: req.Email, Password: req.Password, Name: req.Name, Role: req.Role})
	if err != nil {
		return mapAuthUsecaseError(err)
	}

	return response.Created(c, "Verification code sent", dto.NewUserProfileResponse(usr))
}

func (h *AuthHandler) VerifyOTP(c fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	sess, res, err := h.uc.VerifyOTP(c.Context(), req.Email, req.Code)
	if err != nil {
		if errors.Is(err, ucauth.ErrInvalidOTP) {
			return middleware.NewAppError(fiber.StatusBadRequest, res.Message, map[string]bool{"expired": res.Expired}, err)
		}
		return mapAuthUsecaseError(err)
	}

	return response.Success(c, fiber.StatusOK, res.Message, sessionData(sess))
}

func (h *AuthHandler) ResendOTP(c fiber.Ctx) error {
	var req resendOTPRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	if err := h.uc.ResendOTP(c.Context(), req.Email); err != nil {
		return mapAuthUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, "Verification code sent", nil)
}

func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req loginRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	sess, err := h.uc.Login(c.Context(), ucauth.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return mapAuthUsecaseError(err)
	}

	return response.OK(c, sessionData(sess))
}

// Refresh reads the refresh token from the body or, failing that, the
// Authorization header.
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	var req refreshRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
		}
	}
	tok := req.RefreshToken
	if tok == "" {
		var ok bool
		if tok, ok = middleware.BearerToken(c.Get("Authorization")); !ok {
			return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
		}
	}

	pair, err := h.uc.Refresh(c.Context(), tok)
	if err != nil {
		return mapAuthUsecaseError(err)
	}
	return response.OK(c, pair)
}

func sessionData(sess ucauth.Session) map[string]any {
	return map[string]any{
		"user":         dto.NewUserProfileResponse(sess.User),
		"accessToken":  sess.Tokens.AccessToken,
		"refreshToken": sess.Tokens.RefreshToken,
		"expiresIn":    sess.Tokens.ExpiresIn,
	}
}

func mapAuthUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ucauth.ErrEmailAlreadyRegistered):
		return middleware.NewAppError(fiber.StatusConflict, "Email already registered", nil, err)
	case errors.Is(err, ucauth.ErrInvalidCredentials):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Invalid email or password", nil, err)
	case errors.Is(err, ucauth.ErrEmailNotVerified):
		return middleware.NewAppError(fiber.StatusForbidden, "Email not verified", nil, err)
	case errors.Is(err, ucauth.ErrAlreadyVerified):
		return middleware.NewAppError(fiber.StatusConflict, "Email already verified", nil, err)
	case errors.Is(err, ucauth.ErrUserNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "User not found", nil, err)
	case errors.Is(err, ucauth.ErrRefreshTokenExpired):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Refresh token expired", nil, err)
	case errors.Is(err, ucauth.ErrInvalidRefreshToken):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Invalid refresh token", nil, err)
	case errors.Is(err, ucauth.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	default:
		return internalError(err)
	}
}
