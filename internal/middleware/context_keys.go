package middleware

import "github.com/gin-gonic/gin"

// actorKey is the key used to store the acting principal in the Gin context.
const actorKey = contextKey("actor")

// actorHeader carries the acting principal's identifier. Authentication is
// handled upstream of this service; the gateway forwards the identity here.
const actorHeader = "X-Actor"

// defaultActor is used for unattributed requests (local tooling, jobs).
const defaultActor = "system"

// ActorMiddleware captures the acting principal from the request headers.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader(actorHeader)
		if actor == "" {
			actor = defaultActor
		}
		c.Set(string(actorKey), actor)
		c.Next()
	}
}

// GetActorFromContext retrieves the acting principal from the Gin context.
func GetActorFromContext(c *gin.Context) string {
	actorVal, exists := c.Get(string(actorKey))
	if !exists {
		return defaultActor
	}
	actor, ok := actorVal.(string)
	if !ok || actor == "" {
		return defaultActor
	}
	return actor
}
