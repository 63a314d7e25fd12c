package handler

import (
	fulfillmentapp "github.com/fulfillment/backend/internal/application/fulfillment"
	"github.com/fulfillment/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// getActor builds the acting identity from the JWT claims in context
func getActor(c *gin.Context) (fulfillmentapp.Actor, bool) {
	userID, role, ok := middleware.GetActor(c)
	if !ok {
		return fulfillmentapp.Actor{}, false
	}
	return fulfillmentapp.Actor{ID: userID, Role: role}, true
}

// getUserID extracts the authenticated user ID
func getUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, _, ok := middleware.GetActor(c)
	return userID, ok
}
