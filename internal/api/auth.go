package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"college/internal/apperr"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	account, ok, err := h.Authenticator.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	h.issueTokens(c, account.Username, account.Role)
}

func (h *handler) issueTokens(c *gin.Context, subject, role string) {
	tokens, err := h.Signer.Issue(subject, role)
	if err != nil {
		log.Printf("token issue for %s failed: %v", subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal", "error": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"role":          role,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

// logout always ends the session client-side; a valid refresh token in the
// body is also revoked until it expires.
func (h *handler) logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.ShouldBindJSON(&req)

	if req.RefreshToken != "" {
		if claims, err := h.Signer.ParseRefresh(req.RefreshToken); err == nil {
			if _, err := h.Revocations.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
				log.Printf("revoke refresh token for %s failed: %v", claims.Subject, err)
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}

func (h *handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	claims, err := h.Signer.ParseRefresh(req.RefreshToken)
	if err != nil {
		writeError(c, apperr.ErrUnauthorized)
		return
	}
	// rotation claims the old token; only the caller that claimed it gets a new pair
	claimed, err := h.Revocations.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		writeError(c, err)
		return
	}
	if !claimed {
		writeError(c, apperr.ErrUnauthorized)
		return
	}
	h.issueTokens(c, claims.Subject, claims.Role)
}
