package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/heart-disease-api/internal/config"
	"github.com/iliyamo/heart-disease-api/internal/utils"
)

// RoleOperator may read the prediction audit log.
const RoleOperator = "OPERATOR"

// AuthHandler exchanges the operator API key for a short lived JWT.
type AuthHandler struct {
	Cfg config.Config
}

func NewAuthHandler(cfg config.Config) *AuthHandler {
	return &AuthHandler{Cfg: cfg}
}

type tokenReq struct {
	APIKey string `json:"api_key"`
}

type tokenResp struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
	Role    string    `json:"role"`
}

// Token verifies the API key against OPERATOR_API_KEY_HASH.
func (h *AuthHandler) Token(c echo.Context) error {
	if !h.Cfg.AuthEnabled() {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "auth not configured"})
	}
	var req tokenReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "api_key required"})
	}
	if !utils.VerifyKey(h.Cfg.OperatorKeyHash, key) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	ttl := time.Duration(h.Cfg.AccessTTLMin) * time.Minute
	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, "operator", RoleOperator, ttl)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, tokenResp{Token: tok.Token, Expires: tok.Exp, Role: RoleOperator})
}
