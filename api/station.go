package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carti0459/PubbsTestingIITK-sub000/station"
)

type stationResponse struct {
	ID         uuid.UUID    `json:"id"`
	Name       string       `json:"name"`
	Address    string       `json:"address"`
	CycleCount int          `json:"cycleCount"`
	Type       station.Type `json:"type"`
}

func toStationResponse(s station.Station) stationResponse {
	return stationResponse{
		ID:         s.ID,
		Name:       s.Name,
		Address:    s.Address,
		CycleCount: s.CycleCount,
		Type:       s.Type,
	}
}

func (a *API) stationsHandler(c *gin.Context) {
	stations, err := a.stations.GetStations(c.Request.Context())
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	resp := make([]stationResponse, 0, len(stations))
	for _, s := range stations {
		resp = append(resp, toStationResponse(s))
	}
	c.JSON(200, resp)
}

func (a *API) stationHandler(c *gin.Context) {
	s, err := a.stations.GetStation(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, station.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, toStationResponse(s))
}
