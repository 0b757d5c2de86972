package middleware

import "github.com/gin-gonic/gin"

// Authenticator is anything that can guard a route group.
type Authenticator interface {
	Handle() gin.HandlerFunc
}
