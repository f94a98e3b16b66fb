package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/parasol-labs/checkin/core"
	"github.com/parasol-labs/checkin/service"
)

const (
	contextKeyEmail        = "userEmail"
	contextKeyCredentialID = "credentialID"
)

// AuthMiddleware validates the bearer access token minted at login.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")

		credential, err := authService.ValidateAccessToken(token)
		if err != nil {
			if errors.Is(err, core.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			return
		}

		c.Set(contextKeyEmail, credential.Email)
		c.Set(contextKeyCredentialID, credential.ID)

		c.Next()
	}
}
