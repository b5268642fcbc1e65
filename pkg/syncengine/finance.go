package syncengine

import (
	"context"
	"time"

	"github.com/deenmate/sync-core/pkg/httpclient"
	"github.com/deenmate/sync-core/pkg/storage"
	"github.com/deenmate/sync-core/pkg/types"
)

const financeJobName = "finance-sync"

type spotPriceDTO struct {
	Gold   float64 `json:"gold"`
	Silver float64 `json:"silver"`
}

// FinanceSyncer fetches and maps gold spot prices and zakat nisab
// input rates. Both read the same upstream spot-price feed; they are
// distinct resources because they gate and log independently and feed
// different domain tables.
type FinanceSyncer struct {
	client  *httpclient.Client
	gateway storage.Finance
	engine  *Engine
	baseURL string
}

func NewFinanceSyncer(client *httpclient.Client, gateway storage.Finance, engine *Engine, baseURL string) *FinanceSyncer {
	return &FinanceSyncer{client: client, gateway: gateway, engine: engine, baseURL: baseURL}
}

// SyncGoldPrice fetches and upserts today's USD-per-troy-ounce gold
// spot price for a market.
func (s *FinanceSyncer) SyncGoldPrice(ctx context.Context, market string, opts Options) (*Result, error) {
	return s.engine.Run(ctx, financeJobName, "gold:"+market, opts, func(ctx context.Context, opts Options) (StepResult, error) {
		var resp spotPriceDTO
		if err := s.client.GetJSON(ctx, "gold", s.baseURL+"/spot", &resp); err != nil {
			return StepResult{}, err
		}

		result := StepResult{Processed: 1}
		if resp.Gold <= 0 {
			result.Failed = 1
			result.Errors = append(result.Errors, "upstream returned non-positive gold price")
			return result, nil
		}
		if opts.DryRun {
			return result, nil
		}

		price := &types.GoldPrice{
			Market: market, Unit: "troy_ounce", Date: time.Now().Format("2006-01-02"),
			PriceUSD: resp.Gold, FetchedAt: time.Now(),
		}
		if err := s.gateway.UpsertGoldPrice(ctx, price); err != nil {
			result.Failed = 1
			result.Errors = append(result.Errors, err.Error())
			return result, nil
		}
		result.Updated = 1
		return result, nil
	})
}

// SyncZakatNisabRates fetches and upserts the per-gram gold and silver
// rates a zakat calculation reads as nisab input.
func (s *FinanceSyncer) SyncZakatNisabRates(ctx context.Context, opts Options) (*Result, error) {
	return s.engine.Run(ctx, financeJobName, "nisab-rates", opts, func(ctx context.Context, opts Options) (StepResult, error) {
		var resp spotPriceDTO
		if err := s.client.GetJSON(ctx, "zakat", s.baseURL+"/spot", &resp); err != nil {
			return StepResult{}, err
		}

		result := StepResult{Processed: 2}
		date := time.Now().Format("2006-01-02")
		now := time.Now()

		const gramsPerTroyOunce = 31.1035

		rates := []*types.ZakatNisabRate{
			{Metal: "gold", Date: date, PricePerGram: resp.Gold / gramsPerTroyOunce, FetchedAt: now},
			{Metal: "silver", Date: date, PricePerGram: resp.Silver / gramsPerTroyOunce, FetchedAt: now},
		}

		if opts.DryRun {
			return result, nil
		}
		for _, r := range rates {
			if r.PricePerGram <= 0 {
				result.Failed++
				result.Errors = append(result.Errors, "upstream returned non-positive "+r.Metal+" price")
				continue
			}
			if err := s.gateway.UpsertZakatNisabRate(ctx, r); err != nil {
				result.Failed++
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			result.Updated++
		}
		return result, nil
	})
}
