package middleware

import (
	"net/http"
	"strings"

	types "go-checkout/internal/common/type"
	"go-checkout/internal/pkg/helper"
	"go-checkout/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware guards routes that require a verified checkout session.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		send := c.MustGet("send").(func(r *types.Response))
		if token == "" {
			send(helper.ParseResponse(&types.Response{Code: http.StatusUnauthorized, Message: "token not found"}))
			return
		}
		token = strings.TrimPrefix(token, "Bearer ")

		claims, err := jwt.ValidateToken(token)
		if err != nil {
			send(helper.ParseResponse(&types.Response{Code: http.StatusUnauthorized, Message: "invalid token", Error: err}))
			return
		}

		c.Set("auth", *claims)
		c.Next()
	}
}
