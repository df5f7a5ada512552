package server

import "github.com/gin-gonic/gin"

func (s *Server) GetOverview(c *gin.Context) {
	overview, err := s.engine.GetOverview(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, overview)
}
