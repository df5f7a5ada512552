package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type generateSettlementRequest struct {
	Period     string `json:"period"`
	PreparedBy string `json:"prepared_by"`
}

func (s *Server) GenerateSettlement(c *gin.Context) {
	var req generateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestError(c)
		return
	}

	preparedBy, err := snowflake.ParseString(strings.TrimSpace(req.PreparedBy))
	if err != nil {
		invalidIDError(c)
		return
	}

	settlement, err := s.settlementSvc.Generate(c.Request.Context(), strings.TrimSpace(req.Period), preparedBy)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, settlement)
}

func (s *Server) ListSettlements(c *gin.Context) {
	settlements, err := s.settlementSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, settlements)
}

func (s *Server) GetSettlement(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		invalidIDError(c)
		return
	}

	settlement, err := s.settlementSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, settlement)
}
