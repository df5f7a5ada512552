package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	coupondomain "github.com/clinicamia/miapass/internal/coupon/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreateCoupon(c *gin.Context) {
	var req coupondomain.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestError(c)
		return
	}

	coupon, err := s.couponSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, coupon)
}

func (s *Server) ListCoupons(c *gin.Context) {
	coupons, err := s.couponSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, coupons)
}

func (s *Server) UpdateCoupon(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		invalidIDError(c)
		return
	}

	var req coupondomain.UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestError(c)
		return
	}

	coupon, err := s.couponSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, coupon)
}

func (s *Server) ToggleCoupon(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		invalidIDError(c)
		return
	}

	coupon, err := s.couponSvc.Toggle(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, coupon)
}

func (s *Server) DeleteCoupon(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		invalidIDError(c)
		return
	}

	if err := s.couponSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, gin.H{"deleted": true})
}

func (s *Server) ValidateCoupon(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	planID, err := snowflake.ParseString(c.Query("plan_id"))
	if err != nil || code == "" {
		invalidRequestError(c)
		return
	}

	coupon, err := s.couponSvc.Validate(c.Request.Context(), code, planID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, coupon)
}
