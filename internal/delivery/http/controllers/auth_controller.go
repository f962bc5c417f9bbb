package controllers

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	h "confcentral/internal/delivery/http/helpers"
	"confcentral/internal/domain"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// RequestCodeRequest is the request body for POST /auth/request-code.
type RequestCodeRequest struct {
	Email string `json:"email"`
}

// Validate implements Validator.
func (r RequestCodeRequest) Validate() []string {
	var errs []string
	email := strings.TrimSpace(strings.ToLower(r.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	return errs
}

// VerifyCodeRequest is the request body for POST /auth/verify-code.
type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Validate implements Validator.
func (v VerifyCodeRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(v.Email) == "" {
		errs = append(errs, "email is required")
	}
	if v.Code == "" {
		errs = append(errs, "code is required")
	}
	return errs
}

// VerifyCodeResponse is the response body for POST /auth/verify-code.
type VerifyCodeResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}

type AuthController struct {
	Logger  *slog.Logger
	Service domain.AuthService
}

func NewAuthController(logger *slog.Logger, svc domain.AuthService) *AuthController {
	return &AuthController{
		Logger:  logger,
		Service: svc,
	}
}

// RequestCode godoc
// @Summary Request a one-time login code
// @Description Email a short-lived one-time login code to the given address. Always responds 202 on success so the endpoint does not reveal which addresses exist.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body RequestCodeRequest true "Email address"
// @Success 202 {object} helpers.APIResponse "code sent"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/request-code [post]
func (c *AuthController) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req RequestCodeRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.RequestLoginCode(r.Context(), req.Email); err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusAccepted, map[string]string{"status": "code sent"})
}

// VerifyCode godoc
// @Summary Exchange a login code for a bearer token
// @Description Verify the emailed one-time code and return a JWT. Codes are single use and expire after a few minutes.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body VerifyCodeRequest true "Email and code"
// @Success 200 {object} helpers.APIResponse "data contains the token"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/verify-code [post]
func (c *AuthController) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	token, err := c.Service.VerifyLoginCode(r.Context(), req.Email, req.Code)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, VerifyCodeResponse{Token: token, TokenType: "Bearer"})
}
