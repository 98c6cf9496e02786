package server

import (
	"net/http"

	"github.com/iceymoss/local-blog-genius/internal/repo"
	"github.com/iceymoss/local-blog-genius/internal/service"

	"github.com/gin-gonic/gin"
)

func (s *Server) listLocations(c *gin.Context) {
	page, ok := s.page(c, repo.DefaultLimit)
	if !ok {
		return
	}
	filter := repo.LocationFilter{
		Name:    stringQuery(c, "name"),
		State:   stringQuery(c, "state"),
		Country: stringQuery(c, "country"),
	}
	locations, total, err := s.deps.Locations.List(c.Request.Context(), filter, page)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondList(c, toLocations(locations), total)
}

func (s *Server) createLocation(c *gin.Context) {
	var in service.LocationCreate
	if !s.bindJSON(c, &in) {
		return
	}
	location, err := s.deps.Locations.Create(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Location created", toLocation(*location))
}

func (s *Server) getLocation(c *gin.Context) {
	id, ok := s.idParam(c)
	if !ok {
		return
	}
	location, err := s.deps.Locations.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", toLocation(*location))
}

func (s *Server) updateLocation(c *gin.Context) {
	id, ok := s.idParam(c)
	if !ok {
		return
	}
	var in service.LocationUpdate
	if !s.bindJSON(c, &in) {
		return
	}
	location, err := s.deps.Locations.Update(c.Request.Context(), id, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Location updated", toLocation(*location))
}

func (s *Server) deleteLocation(c *gin.Context) {
	id, ok := s.idParam(c)
	if !ok {
		return
	}
	if err := s.deps.Locations.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Location deleted", nil)
}

// searchLocations 地理编码联想
func (s *Server) searchLocations(c *gin.Context) {
	limit, ok := s.intQuery(c, "limit", 0)
	if !ok {
		return
	}
	suggestions, err := s.deps.Locations.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondItems(c, orEmpty(suggestions))
}

func (s *Server) locationStats(c *gin.Context) {
	stats, err := s.deps.Locations.Stats(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", stats)
}
