// Package server exposes the MiaPass core over HTTP. Handlers translate
// JSON to domain requests and back; every business rule lives in the
// services.
package server

import (
	"context"
	"net/http"

	"github.com/clinicamia/miapass/internal/config"
	commissiondomain "github.com/clinicamia/miapass/internal/commission/domain"
	coupondomain "github.com/clinicamia/miapass/internal/coupon/domain"
	plandomain "github.com/clinicamia/miapass/internal/plan/domain"
	settlementdomain "github.com/clinicamia/miapass/internal/settlement/domain"
	subscriptiondomain "github.com/clinicamia/miapass/internal/subscription/domain"
	vendordomain "github.com/clinicamia/miapass/internal/vendors/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Provide(NewEngine),
	fx.Invoke(RunHTTP),
)

type Server struct {
	log *zap.Logger

	planSvc         plandomain.Service
	couponSvc       coupondomain.Service
	vendorSvc       vendordomain.Service
	subscriptionSvc subscriptiondomain.Service
	engine          commissiondomain.Engine
	settlementSvc   settlementdomain.Service
}

type ServerParam struct {
	fx.In

	Log *zap.Logger

	PlanSvc         plandomain.Service
	CouponSvc       coupondomain.Service
	VendorSvc       vendordomain.Service
	SubscriptionSvc subscriptiondomain.Service
	Engine          commissiondomain.Engine
	SettlementSvc   settlementdomain.Service
}

func NewServer(p ServerParam) *Server {
	return &Server{
		log: p.Log.Named("server"),

		planSvc:         p.PlanSvc,
		couponSvc:       p.CouponSvc,
		vendorSvc:       p.VendorSvc,
		subscriptionSvc: p.SubscriptionSvc,
		engine:          p.Engine,
		settlementSvc:   p.SettlementSvc,
	}
}

func NewEngine(s *Server) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func (s *Server) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/plans", s.CreatePlan)
	r.GET("/plans", s.ListPlans)
	r.GET("/plans/:id", s.GetPlan)
	r.PUT("/plans/:id", s.UpdatePlan)
	r.POST("/plans/:id/toggle", s.TogglePlan)

	r.POST("/coupons", s.CreateCoupon)
	r.GET("/coupons", s.ListCoupons)
	r.PUT("/coupons/:id", s.UpdateCoupon)
	r.POST("/coupons/:id/toggle", s.ToggleCoupon)
	r.DELETE("/coupons/:id", s.DeleteCoupon)
	r.GET("/coupons/validate", s.ValidateCoupon)

	r.POST("/subscriptions", s.CreateSubscription)
	r.GET("/subscriptions", s.ListSubscriptions)
	r.GET("/subscriptions/:id", s.GetSubscription)
	r.POST("/subscriptions/:id/cancel", s.CancelSubscription)
	r.POST("/subscriptions/:id/annul", s.AnnulSubscription)
	r.POST("/subscriptions/:id/refund", s.RefundSubscription)
	r.POST("/subscriptions/:id/liquidate", s.LiquidateSubscription)

	r.GET("/vendors/:id/network", s.GetVendorNetwork)
	r.GET("/vendors/:id/standing", s.GetVendorStanding)
	r.GET("/vendors/:id/commissions", s.GetVendorCommissions)
	r.GET("/vendors/:id/payouts", s.GetVendorPayouts)

	r.GET("/overview", s.GetOverview)

	r.POST("/settlements", s.GenerateSettlement)
	r.GET("/settlements", s.ListSettlements)
	r.GET("/settlements/:id", s.GetSettlement)
}

func RunHTTP(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.Server.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
