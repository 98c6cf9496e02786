package server

import (
	"net/http"

	"github.com/iceymoss/local-blog-genius/internal/repo"
	"github.com/iceymoss/local-blog-genius/internal/service"

	"github.com/gin-gonic/gin"
)

func (s *Server) listIndustries(c *gin.Context) {
	page, ok := s.page(c, repo.DefaultLimit)
	if !ok {
		return
	}
	filter := repo.IndustryFilter{Name: stringQuery(c, "name"), Category: stringQuery(c, "category")}
	industries, total, err := s.deps.Industries.List(c.Request.Context(), filter, page)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondList(c, orEmpty(industries), total)
}

func (s *Server) createIndustry(c *gin.Context) {
	var in service.IndustryCreate
	if !s.bindJSON(c, &in) {
		return
	}
	industry, err := s.deps.Industries.Create(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Industry created", industry)
}

func (s *Server) getIndustry(c *gin.Context) {
	id, ok := s.idParam(c)
	if !ok {
		return
	}
	industry, err := s.deps.Industries.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", industry)
}

func (s *Server) updateIndustry(c *gin.Context) {
	id, ok := s.idParam(c)
	if !ok {
		return
	}
	var in service.IndustryUpdate
	if !s.bindJSON(c, &in) {
		return
	}
	industry, err := s.deps.Industries.Update(c.Request.Context(), id, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Industry updated", industry)
}

func (s *Server) deleteIndustry(c *gin.Context) {
	id, ok := s.idParam(c)
	if !ok {
		return
	}
	if err := s.deps.Industries.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Industry deleted", nil)
}

// relatedIndustries 同分类的其他行业
func (s *Server) relatedIndustries(c *gin.Context) {
	limit, ok := s.intQuery(c, "limit", 0)
	if !ok {
		return
	}
	related, err := s.deps.Industries.Related(c.Request.Context(), c.Query("name"), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondItems(c, orEmpty(related))
}

func (s *Server) industryStats(c *gin.Context) {
	stats, err := s.deps.Industries.Stats(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", stats)
}
