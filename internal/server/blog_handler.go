package server

import (
	"net/http"

	"github.com/iceymoss/local-blog-genius/internal/repo"
	"github.com/iceymoss/local-blog-genius/internal/service"

	"github.com/gin-gonic/gin"
)

func (s *Server) generatePost(c *gin.Context) {
	var in service.BlogPostCreate
	if !s.bindJSON(c, &in) {
		return
	}
	post, err := s.deps.Blog.CreatePost(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Blog post generated successfully", toPost(*post))
}

func (s *Server) listPosts(c *gin.Context) {
	page, ok := s.page(c, repo.DefaultLimit)
	if !ok {
		return
	}
	industryID, ok := s.uintQuery(c, "industry_id")
	if !ok {
		return
	}
	locationID, ok := s.uintQuery(c, "location_id")
	if !ok {
		return
	}
	filter := repo.PostFilter{IndustryID: industryID, LocationID: locationID, Style: stringQuery(c, "style")}

	posts, total, err := s.deps.Blog.List(c.Request.Context(), filter, page)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondList(c, toPosts(posts), total)
}

func (s *Server) getPost(c *gin.Context) {
	id, ok := s.idParam(c)
	if !ok {
		return
	}
	post, err := s.deps.Blog.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", toPost(*post))
}

func (s *Server) updatePost(c *gin.Context) {
	id, ok := s.idParam(c)
	if !ok {
		return
	}
	var in service.BlogPostUpdate
	if !s.bindJSON(c, &in) {
		return
	}
	post, err := s.deps.Blog.Update(c.Request.Context(), id, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Blog post updated", toPost(*post))
}

func (s *Server) deletePost(c *gin.Context) {
	id, ok := s.idParam(c)
	if !ok {
		return
	}
	if err := s.deps.Blog.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Blog post deleted", nil)
}

func (s *Server) postStats(c *gin.Context) {
	stats, err := s.deps.Blog.Stats(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", stats)
}

func (s *Server) postsByIndustry(c *gin.Context) {
	page, ok := s.page(c, service.DefaultByNameLimit)
	if !ok {
		return
	}
	posts, err := s.deps.Blog.ByIndustry(c.Request.Context(), c.Param("name"), page)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondItems(c, toPosts(posts))
}

func (s *Server) postsByLocation(c *gin.Context) {
	page, ok := s.page(c, service.DefaultByNameLimit)
	if !ok {
		return
	}
	posts, err := s.deps.Blog.ByLocation(c.Request.Context(), c.Param("name"), page)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondItems(c, toPosts(posts))
}
