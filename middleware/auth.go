package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/inkdesk/commission-api/config"
	"github.com/inkdesk/commission-api/models"
	"github.com/inkdesk/commission-api/services"
	"github.com/inkdesk/commission-api/utils"
	"github.com/rs/zerolog/log"
)

// CustomClaims contains custom data we want from the token.
type CustomClaims struct {
	Role string `json:"role"`
}

// Validate rejects tokens that carry an unknown role.
func (c CustomClaims) Validate(ctx context.Context) error {
	if !models.Role(c.Role).Valid() {
		return errors.New("token carries an unknown role")
	}
	return nil
}

// HasRole checks whether our claims carry a specific role.
func (c CustomClaims) HasRole(role models.Role) bool {
	return models.Role(c.Role) == role
}

// NewValidator builds the HS256 validator for locally issued tokens.
func NewValidator(cfg *config.Config) (*validator.Validator, error) {
	keyFunc := func(ctx context.Context) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}

	return validator.New(
		keyFunc,
		validator.HS256,
		cfg.JWTIssuer,
		[]string{cfg.JWTAudience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
}

// EnsureValidToken is a middleware that will check the validity of our JWT and
// that its id has not been revoked.
func EnsureValidToken(cfg *config.Config) gin.HandlerFunc {
	jwtValidator, err := NewValidator(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up the jwt validator")
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("encountered error while validating JWT")

		code := "INVALID_TOKEN"
		if errors.Is(err, jwtmiddleware.ErrJWTMissing) {
			code = "MISSING_TOKEN"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		if _, writeErr := w.Write([]byte(`{"success":false,"error":{"code":"` + code + `","message":"Failed to validate JWT."}}`)); writeErr != nil {
			log.Error().Err(writeErr).Msg("failed to write error response")
		}
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(c *gin.Context) {
		passed := false

		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			passed = true
			token := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)

			if blacklist := services.GetTokenBlacklist(); blacklist != nil {
				revoked, err := blacklist.IsRevoked(r.Context(), token.RegisteredClaims.ID)
				if err != nil {
					log.Error().Err(err).Msg("token revocation check failed")
					utils.RespondError(c, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Could not verify the session, try again later")
					return
				}
				if revoked {
					utils.RespondError(c, http.StatusUnauthorized, "TOKEN_REVOKED", "The session has been logged out")
					return
				}
			}

			// Store the validated claims in Gin context
			c.Request = r
			c.Set("user_id", token.RegisteredClaims.Subject)
			c.Set("validated_claims", token)

			c.Next()
		}

		// Use the JWT middleware to check the token
		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

// GetUserID extracts the numeric user ID (the token subject) from the Gin context
func GetUserID(c *gin.Context) (uint, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0, &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}

	userIDStr, ok := userID.(string)
	if !ok {
		return 0, &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a string"}
	}

	id, err := strconv.ParseUint(userIDStr, 10, 64)
	if err != nil || id == 0 {
		return 0, &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a valid identifier"}
	}

	return uint(id), nil
}

// GetClaims extracts the validated JWT claims from the Gin context
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	claims, exists := c.Get("validated_claims")
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}

	return validatedClaims, nil
}

// RequireUser loads the token's user from the database and stores it in the context
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := loadUser(c); ok {
			c.Next()
		}
	}
}

// RequireRole loads the token's user and checks that it has the given role
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := loadUser(c)
		if !ok {
			return
		}

		if user.Role != role {
			utils.RespondError(c, http.StatusForbidden, "INSUFFICIENT_ROLE", "Insufficient permissions to access this resource")
			return
		}

		c.Next()
	}
}

func loadUser(c *gin.Context) (*models.User, bool) {
	userID, err := GetUserID(c)
	if err != nil {
		var authErr *AuthError
		errors.As(err, &authErr)
		utils.RespondError(c, http.StatusUnauthorized, authErr.Code, authErr.Message)
		return nil, false
	}

	var user models.User
	if err := config.GetDB().WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "USER_NOT_FOUND", "The account for this token no longer exists")
		return nil, false
	}

	c.Set("current_user", &user)
	return &user, true
}

// CurrentUser returns the user stored by RequireUser or RequireRole
func CurrentUser(c *gin.Context) (*models.User, error) {
	value, exists := c.Get("current_user")
	if !exists {
		return nil, &AuthError{Code: "MISSING_USER", Message: "User not found in context"}
	}

	user, ok := value.(*models.User)
	if !ok {
		return nil, &AuthError{Code: "INVALID_USER", Message: "User is not in the expected format"}
	}

	return user, nil
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
