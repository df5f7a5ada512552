package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clinicamia/miapass/internal/clock"
	"github.com/clinicamia/miapass/internal/commission"
	"github.com/clinicamia/miapass/internal/config"
	"github.com/clinicamia/miapass/internal/coupon"
	"github.com/clinicamia/miapass/internal/migration"
	"github.com/clinicamia/miapass/internal/notification"
	"github.com/clinicamia/miapass/internal/observability"
	"github.com/clinicamia/miapass/internal/plan"
	"github.com/clinicamia/miapass/internal/redis"
	"github.com/clinicamia/miapass/internal/server"
	"github.com/clinicamia/miapass/internal/settlement"
	settlementdomain "github.com/clinicamia/miapass/internal/settlement/domain"
	"github.com/clinicamia/miapass/internal/subscription"
	"github.com/clinicamia/miapass/internal/vendors"
	"github.com/clinicamia/miapass/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "miapass",
		Short:   "MiaPass commission core",
		Version: readVersionFromEnv(),
	}
	root.AddCommand(newMigrateCmd(), newServeCmd(), newSettleCmd(), newAllCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate()
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MiaPass API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			runServe()
			return nil
		},
	}
}

func newSettleCmd() *cobra.Command {
	var period, actor string

	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Generate the settlement batch for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettle(period, actor)
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "settlement period, YYYY-MM")
	cmd.Flags().StringVar(&actor, "actor", "", "id of the person generating the batch")
	_ = cmd.MarkFlagRequired("period")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func newAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Apply the schema, then run the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runMigrate(); err != nil {
				return err
			}
			runServe()
			return nil
		},
	}
}

func coreModules() fx.Option {
	return fx.Options(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		redis.Module,
		plan.Module,
		coupon.Module,
		vendors.Module,
		commission.Module,
		subscription.Module,
		settlement.Module,
	)
}

func runMigrate() error {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		migration.Module,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("migrate failed: %w", err)
	}
	_ = app.Stop(context.Background())
	return nil
}

func runServe() {
	app := fx.New(
		coreModules(),
		notification.Module,
		server.Module,
	)
	app.Run()
}

func runSettle(period, actor string) error {
	preparedBy, err := snowflake.ParseString(strings.TrimSpace(actor))
	if err != nil {
		return fmt.Errorf("invalid actor id: %w", err)
	}

	var runErr error
	app := fx.New(
		coreModules(),
		fx.Invoke(func(svc settlementdomain.Service) {
			batch, err := svc.Generate(context.Background(), strings.TrimSpace(period), preparedBy)
			if err != nil {
				runErr = err
				return
			}
			fmt.Printf("settlement %s generated for %s, total %s\n",
				batch.ID.String(), batch.Period, batch.Total.String())
		}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return err
	}
	_ = app.Stop(context.Background())
	return runErr
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func readVersionFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("APP_VERSION")); v != "" {
		return v
	}
	return "dev"
}
