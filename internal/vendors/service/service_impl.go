package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	commissiondomain "github.com/clinicamia/miapass/internal/commission/domain"
	"github.com/clinicamia/miapass/internal/config"
	vendordomain "github.com/clinicamia/miapass/internal/vendors/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// uplineDepth bounds the ancestor walk. The stored hierarchy has no depth
// or cycle limit, so the resolver never follows more than two hops.
const uplineDepth = 2

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	repo         vendordomain.Repository
	activeStates []string
}

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Config config.Config
	Repo   vendordomain.Repository
}

func NewService(p ServiceParam) vendordomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("vendor.service"),

		repo:         p.Repo,
		activeStates: p.Config.Commission.ActiveStates,
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (vendordomain.Vendor, error) {
	vendor, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return vendordomain.Vendor{}, err
	}
	if vendor == nil {
		return vendordomain.Vendor{}, vendordomain.ErrVendorNotFound
	}
	return *vendor, nil
}

func (s *Service) GetNetwork(ctx context.Context, vendorID snowflake.ID) (vendordomain.Network, error) {
	if _, err := s.Get(ctx, vendorID); err != nil {
		return vendordomain.Network{}, err
	}

	network := vendordomain.Network{VendorID: vendorID}

	level1, err := s.repo.FindChildren(ctx, s.db, vendorID)
	if err != nil {
		return vendordomain.Network{}, err
	}

	for _, child := range level1 {
		member, err := s.buildMember(ctx, child)
		if err != nil {
			return vendordomain.Network{}, err
		}
		network.Level1 = append(network.Level1, member)
		network.Level1ActiveSales += member.ActiveSales

		// Second and final level; grandchildren of grandchildren are
		// out of payout scope.
		level2, err := s.repo.FindChildren(ctx, s.db, child.ID)
		if err != nil {
			return vendordomain.Network{}, err
		}
		for _, grandchild := range level2 {
			if grandchild.ID == vendorID {
				s.log.Warn("referral hierarchy cycle detected",
					zap.String("vendor_id", vendorID.String()),
					zap.String("via", child.ID.String()))
				continue
			}
			member, err := s.buildMember(ctx, grandchild)
			if err != nil {
				return vendordomain.Network{}, err
			}
			network.Level2 = append(network.Level2, member)
			network.Level2ActiveSales += member.ActiveSales
		}
	}

	l1Earnings, err := s.repo.SumReferralEarnings(ctx, s.db, vendorID, string(commissiondomain.RoleReferrerL1))
	if err != nil {
		return vendordomain.Network{}, err
	}
	l2Earnings, err := s.repo.SumReferralEarnings(ctx, s.db, vendorID, string(commissiondomain.RoleReferrerL2))
	if err != nil {
		return vendordomain.Network{}, err
	}
	network.Level1Earnings = l1Earnings
	network.Level2Earnings = l2Earnings

	return network, nil
}

func (s *Service) GetUpline(ctx context.Context, vendorID snowflake.ID) (vendordomain.Upline, error) {
	var upline vendordomain.Upline

	seen := map[snowflake.ID]struct{}{vendorID: {}}
	currentID := vendorID

	for hop := 0; hop < uplineDepth; hop++ {
		current, err := s.repo.FindByID(ctx, s.db, currentID)
		if err != nil {
			return vendordomain.Upline{}, err
		}
		if current == nil || current.ParentID == nil {
			break
		}

		parentID := *current.ParentID
		if _, ok := seen[parentID]; ok {
			// Data-integrity condition, not a crash: stop walking.
			s.log.Warn("referral hierarchy cycle detected",
				zap.String("vendor_id", vendorID.String()),
				zap.String("at", parentID.String()))
			break
		}
		seen[parentID] = struct{}{}

		parent, err := s.repo.FindByID(ctx, s.db, parentID)
		if err != nil {
			return vendordomain.Upline{}, err
		}
		if parent == nil {
			break
		}

		switch hop {
		case 0:
			upline.Parent = parent
		case 1:
			upline.Grandparent = parent
		}
		currentID = parentID
	}

	return upline, nil
}

func (s *Service) buildMember(ctx context.Context, vendor vendordomain.Vendor) (vendordomain.NetworkMember, error) {
	sales, err := s.repo.CountActiveSales(ctx, s.db, vendor.ID, s.activeStates)
	if err != nil {
		return vendordomain.NetworkMember{}, err
	}
	return vendordomain.NetworkMember{Vendor: vendor, ActiveSales: sales}, nil
}
