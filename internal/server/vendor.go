package server

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func (s *Server) GetVendorNetwork(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		invalidIDError(c)
		return
	}

	network, err := s.vendorSvc.GetNetwork(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, network)
}

func (s *Server) GetVendorStanding(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		invalidIDError(c)
		return
	}

	standing, err := s.engine.GetVendorStanding(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, standing)
}

func (s *Server) GetVendorCommissions(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		invalidIDError(c)
		return
	}

	commissions, err := s.engine.GetVendorCommissions(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, commissions)
}

func (s *Server) GetVendorPayouts(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		invalidIDError(c)
		return
	}

	payouts, err := s.settlementSvc.PayoutHistory(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, payouts)
}
