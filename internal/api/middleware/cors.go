package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-marketplace/internal/signature"
)

// SetupCORS configures CORS middleware. Browsers only read the marketplace;
// signed requests come from services and are unaffected.
func SetupCORS() gin.HandlerFunc {
	config := cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			HEADER_REQUEST_ID, signature.HEADER_SIGNATURE, signature.HEADER_TIMESTAMP,
		},
		ExposeHeaders:    []string{"Content-Length", HEADER_REQUEST_ID, HEADER_RATE_LIMIT_REMAINING, "Retry-After"},
		AllowCredentials: false,
		MaxAge:           time.Hour,
	}
	return cors.New(config)
}
