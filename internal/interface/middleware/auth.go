package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/safespace-app/safespace-api/pkg/helpers"
	"github.com/safespace-app/safespace-api/pkg/response"
)

// Auth validates the access token cookie and ensures an active session
// exists in Redis. A token whose session id no longer matches the stored
// hash is rejected, so sign-out invalidates every outstanding token.
// It sets userID, userName, and userEmail in the Gin context on success.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("access_token")
		if err != nil || token == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", gin.H{"redirect": "/login"})
			c.Abort()
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "invalid access token", gin.H{"redirect": "/login"})
			c.Abort()
			return
		}

		// Session lives in a Redis hash keyed by user id.
		key := "user:session:" + claims.UserID
		data, err := rdb.HGetAll(c.Request.Context(), key).Result()
		if err != nil || len(data) == 0 {
			response.Error[any](c, http.StatusUnauthorized, "session not found", gin.H{"redirect": "/login"})
			c.Abort()
			return
		}
		if sid := data["sid"]; sid != "" && sid != claims.SessionID {
			response.Error[any](c, http.StatusUnauthorized, "session superseded", gin.H{"redirect": "/login"})
			c.Abort()
			return
		}

		c.Set("userID", data["user_id"])  // required by handlers
		c.Set("userName", data["name"])   // extra convenience
		c.Set("userEmail", data["email"]) // extra convenience
		c.Next()
	}
}
