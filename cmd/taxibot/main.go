// Command taxibot runs the Telegram taxi order bot.
package main

import (
	"context"
	"fmt"
	"log"

	corebootstrap "github.com/m3rciful/taxibot/core/bootstrap"
	corecmd "github.com/m3rciful/taxibot/core/cmd"
	"github.com/m3rciful/taxibot/internal/bot"
	"github.com/m3rciful/taxibot/internal/catalog"
	appconfig "github.com/m3rciful/taxibot/internal/config"
	"github.com/m3rciful/taxibot/internal/journal"
	"github.com/m3rciful/taxibot/internal/order"
	"github.com/m3rciful/taxibot/internal/pricing"
	"github.com/m3rciful/taxibot/internal/roster"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := appconfig.Load(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: bootstrapApp,
	})
	if err != nil {
		log.Fatal(err)
	}
}

func bootstrapApp(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*appconfig.Config)
	if !ok {
		return nil, fmt.Errorf("unexpected config type %T", carrier)
	}

	var (
		streets *catalog.Catalog
		drivers *roster.Roster
	)
	res, err := corebootstrap.Run(ctx, corebootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
		Loaders: []corebootstrap.Loader{
			corebootstrap.LoaderFunc{Label: "catalog", Fn: func(context.Context) (err error) {
				streets, err = catalog.Load(cfg.Data.CatalogPath)
				return err
			}},
			corebootstrap.LoaderFunc{Label: "roster", Fn: func(context.Context) (err error) {
				drivers, err = roster.Load(cfg.Data.RosterPath)
				return err
			}},
		},
	})
	if err != nil {
		return nil, err
	}

	var (
		j         journal.Journal = journal.Nop{}
		closeDeps func() error
	)
	if res.DB != nil {
		j = journal.NewPostgres(res.DB)
		closeDeps = res.DB.Close
	}

	policy := pricing.NewPolicy(cfg.Pricing.Districts)
	machine, err := order.NewMachine(order.Config{
		Catalog:     streets,
		Roster:      drivers,
		Pricing:     policy,
		SearchDelay: cfg.Order.SearchDelay,
	})
	if err != nil {
		return nil, err
	}

	return bot.NewApp(bot.Deps{
		Config:       cfg,
		Conversation: bot.NewConversation(machine, nil, j),
		Journal:      j,
		Streets:      streets.Len(),
		Drivers:      drivers.Len(),
		Districts:    len(policy.Districts()),
		Close:        closeDeps,
	})
}
