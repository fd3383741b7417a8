package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/ff-marketplace/internal/api/shared/errors"
	"github.com/feral-file/ff-marketplace/internal/domain"
	"github.com/feral-file/ff-marketplace/internal/logger"
	"github.com/feral-file/ff-marketplace/internal/signature"
)

// MAX_SIGNED_BODY_BYTES bounds the body read for verification
const MAX_SIGNED_BODY_BYTES = 1 << 20

// Signed returns a gin middleware that accepts requests signed with the
// shared secret and authenticates them as principal. The body is restored
// for the handler.
func Signed(verifier *signature.Signer, principal domain.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, MAX_SIGNED_BODY_BYTES))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": apierrors.NewBadRequestError("Failed to read request body"),
			})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		err = verifier.Verify(c.GetHeader(signature.HEADER_SIGNATURE), c.GetHeader(signature.HEADER_TIMESTAMP), body)
		if err != nil {
			logger.WarnCtx(c.Request.Context(), "Signature verification failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()))

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": apierrors.NewUnauthorizedError("Invalid signature", err.Error()),
			})
			return
		}

		c.Set(AUTH_TYPE_KEY, AUTH_TYPE_SIGNATURE)
		setCaller(c, principal)

		c.Next()
	}
}
