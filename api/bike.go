package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carti0459/PubbsTestingIITK-sub000/bike"
)

type bikeResponse struct {
	ID          string `json:"id"`
	Operation   string `json:"operation"`
	Status      string `json:"status"`
	Battery     int    `json:"battery"`
	Class       string `json:"class"`
	StationID   string `json:"stationId,omitempty"`
	StationName string `json:"stationName"`
	Available   bool   `json:"available"`
}

func toBikeResponse(b bike.Bike) bikeResponse {
	return bikeResponse{
		ID:          b.ID,
		Operation:   string(b.Operation),
		Status:      string(b.Status),
		Battery:     b.Battery,
		Class:       b.Class.String(),
		StationID:   b.StationID,
		StationName: b.StationName,
		Available:   b.ReadyToRide(),
	}
}

func (a *API) bikesHandler(c *gin.Context) {
	bikes, err := a.bikes.List(c.Request.Context(), a.operator)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	resp := make([]bikeResponse, 0, len(bikes))
	for _, b := range bikes {
		resp = append(resp, toBikeResponse(b))
	}
	c.JSON(200, resp)
}

func (a *API) bikeHandler(c *gin.Context) {
	b, err := a.bikes.Get(c.Request.Context(), a.operator, c.Param("id"))
	if err != nil {
		if errors.Is(err, bike.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, toBikeResponse(b))
}
