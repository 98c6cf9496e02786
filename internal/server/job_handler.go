package server

import (
	"errors"
	"net/http"

	"github.com/iceymoss/local-blog-genius/internal/engine"
	xerrors "github.com/iceymoss/local-blog-genius/pkg/errors"

	"github.com/gin-gonic/gin"
)

const (
	defaultJobLogLimit = 20
	maxJobLogLimit     = 200
)

func (s *Server) listJobs(c *gin.Context) {
	respondItems(c, s.deps.Scheduler.Stats.GetAll())
}

func (s *Server) runJob(c *gin.Context) {
	name := c.Param("name")
	if err := s.deps.Scheduler.ManualRun(name); err != nil {
		if errors.Is(err, engine.ErrJobNotFound) {
			err = xerrors.NotFound("job " + name)
		}
		s.fail(c, err)
		return
	}
	respond(c, http.StatusAccepted, "Triggered", nil)
}

func (s *Server) jobLogs(c *gin.Context) {
	limit, ok := s.intQuery(c, "limit", defaultJobLogLimit)
	if !ok {
		return
	}
	if limit < 1 || limit > maxJobLogLimit {
		s.fail(c, xerrors.Validation("limit must be between 1 and %d", maxJobLogLimit))
		return
	}
	name := c.Param("name")
	if _, found := s.deps.Scheduler.Stats.Get(name); !found {
		s.fail(c, xerrors.NotFound("job "+name))
		return
	}
	logs, err := s.deps.JobLogs.RecentLogs(c.Request.Context(), name, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondItems(c, toJobLogs(logs))
}
