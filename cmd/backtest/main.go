// Command backtest runs the strategy over bar files without any network access.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"QuantSuperior/internal/domain/models"
	"QuantSuperior/internal/engine"
	"QuantSuperior/internal/saver"
	applogger "QuantSuperior/pkg/logger"
	"QuantSuperior/pkg/util"
)

func main() {
	primaryPath := flag.String("primary", "", "primary series (csv, json or parquet)")
	spyPath := flag.String("spy", "", "index series used for the SPY filter")
	vixPath := flag.String("vix", "", "volatility index series")
	costBps := flag.Float64("cost", engine.DefaultCostBpsPerSide, "cost per side in basis points")
	limit := flag.Int("limit", 1200, "keep the last N enriched bars")
	weekdays := flag.String("weekdays", "0,1,2,3", "allowed entry weekdays, Monday=0")
	window := flag.Int("volume-window", engine.DefaultVolumeWindow, "volume z-score window")
	export := flag.String("export", "", "write the trade ledger to this file (csv, json or parquet)")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	log := applogger.NewWriter(os.Stderr, *level)
	if err := run(log, options{
		primary: *primaryPath, spy: *spyPath, vix: *vixPath,
		cost: *costBps, limit: *limit, weekdays: *weekdays, window: *window, export: *export,
	}); err != nil {
		log.Error("backtest failed", applogger.Error(err))
		os.Exit(1)
	}
}

type options struct {
	primary, spy, vix string
	cost              float64
	limit             int
	weekdays          string
	window            int
	export            string
}

func run(log *applogger.Logger, o options) error {
	if o.primary == "" {
		return fmt.Errorf("-primary is required")
	}
	days, err := parseWeekdays(o.weekdays)
	if err != nil {
		return err
	}
	primary, err := saver.LoadBars(o.primary)
	if err != nil {
		return err
	}
	spy, err := optionalBars(o.spy)
	if err != nil {
		return err
	}
	vix, err := optionalBars(o.vix)
	if err != nil {
		return err
	}
	log.Info("series loaded",
		applogger.Int("primary", len(primary)),
		applogger.Int("spy", len(spy)),
		applogger.Int("vix", len(vix)))

	eng := engine.New(engine.Config{CostBpsPerSide: o.cost, AllowedWeekdays: days, VolumeWindow: o.window},
		engine.WithObserver(engine.ObserverFuncs{
			Skip: func(i int, b *models.EnrichedBar, reason string) {
				log.Debug("skip", applogger.Int("index", i), applogger.String("date", b.Date), applogger.String("reason", reason))
			},
		}))
	bars := eng.Prepare(primary, spy, vix)
	if o.limit > 0 && len(bars) > o.limit {
		bars = bars[len(bars)-o.limit:]
	}
	res := eng.Run(bars)

	m := res.Metrics
	log.Info("backtest done",
		applogger.Int("bars", len(bars)),
		applogger.Int("trades", m.TotalTrades),
		applogger.Float64("win_rate", util.Round(m.WinRate, 2)),
		applogger.Float64("avg_trade_pct", util.Round(m.AvgTradePct, 4)),
		applogger.Float64("avg_points", util.Round(m.AvgPoints, 2)),
		applogger.Float64("total_return_pct", util.Round(m.TotalReturnPct, 2)))
	log.Info("next session",
		applogger.String("signal", string(res.SignalNext.Signal)),
		applogger.String("date", res.SignalNext.Date.Or("")))

	if o.export != "" {
		if err := saver.SaveTrades(res.Trades, o.export); err != nil {
			return err
		}
		log.Info("trades exported", applogger.String("path", o.export), applogger.Int("trades", len(res.Trades)))
	}
	return nil
}

func optionalBars(path string) ([]models.PriceBar, error) {
	if path == "" {
		return nil, nil
	}
	return saver.LoadBars(path)
}

func parseWeekdays(s string) ([]int, error) {
	parts := util.SplitCSV(s)
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || d < 0 || d > 6 {
			return nil, fmt.Errorf("bad weekday %q", p)
		}
		out = append(out, d)
	}
	return out, nil
}
