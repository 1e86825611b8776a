package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskhive/internal/apperrors"
	"taskhive/internal/authz"
	"taskhive/internal/models"
)

// actorFrom assembles the acting user from the claims the auth middleware
// put on the context. Returns false on anonymous requests.
func actorFrom(c *gin.Context) (authz.Actor, bool) {
	rawID, ok := c.Get("user_id")
	if !ok {
		return authz.Actor{}, false
	}
	idStr, _ := rawID.(string)
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		return authz.Actor{}, false
	}

	actor := authz.Actor{ID: id}
	if v, ok := c.Get("role"); ok {
		if role, ok := v.(models.Role); ok {
			actor.Role = role
		} else if s, ok := v.(string); ok {
			actor.Role = models.Role(s)
		}
	}
	if v, ok := c.Get("name"); ok {
		actor.Name, _ = v.(string)
	}
	if v, ok := c.Get("email"); ok {
		actor.Email, _ = v.(string)
	}
	return actor, true
}

// mustActor aborts with 401 when no authenticated user is on the context.
func mustActor(c *gin.Context) (authz.Actor, bool) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
	return actor, ok
}

func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return primitive.NilObjectID, false
	}
	return id, true
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := apperrors.StatusCode(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
