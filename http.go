package auth

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"

	"github.com/goliatone/go-charchat-auth/middleware/jwtware"
)

// ProtectedRoute returns middleware that admits only requests carrying a
// valid bearer token. A nil errorHandler answers 401 {"error":"Unauthorized"}.
func ProtectedRoute(cfg Config, validator TokenValidator, errorHandler router.ErrorHandler) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = UnauthorizedHandler(nil)
	}
	return jwtware.New(jwtware.Config{
		ErrorHandler:    errorHandler,
		TokenValidator:  JWTWareValidator(validator),
		AuthScheme:      cfg.GetAuthScheme(),
		ContextKey:      cfg.GetContextKey(),
		TokenLookup:     cfg.GetTokenLookup(),
		ContextEnricher: ContextEnricherAdapter,
	})
}

// UnauthorizedHandler answers every token failure with the same 401 body.
// Store failures during revocation lookup are logged and answered as 500.
func UnauthorizedHandler(logger Logger) router.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return func(c router.Context, err error) error {
		richErr := classifyTokenError(err)
		if richErr.Category == goerrors.CategoryInternal {
			logger.Error("token validation failed", "error", err, "path", c.Path())
			return c.JSON(http.StatusInternalServerError, map[string]any{"error": "Internal server error"})
		}

		logger.Debug("unauthorized request",
			"text_code", richErr.TextCode,
			"path", c.Path(),
		)
		return c.JSON(http.StatusUnauthorized, map[string]any{"error": ErrUnauthorized.Message})
	}
}

func classifyTokenError(err error) *goerrors.Error {
	switch {
	case goerrors.Is(err, jwtware.ErrJWTMissingOrMalformed):
		return withCause(ErrUnauthorized, err)
	case IsTokenExpiredError(err):
		return withCause(ErrTokenExpired, err)
	case IsMalformedError(err):
		return withCause(ErrTokenMalformed, err)
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return withCause(ErrTokenInvalid, err)
}
