package production

import (
	"context"
	"fmt"
	"sort"

	"lumpiah/internal/core/id"
	"lumpiah/internal/core/types"
)

// Insight labels the relation between production and sales.
type Insight string

const (
	InsightPotentialWaste Insight = "Potential Waste"
	InsightHighDemand     Insight = "High Demand / Lost Sales Risk"
	InsightBalanced       Insight = "Balanced"
)

// InsightFor classifies produced against sold quantity.
func InsightFor(production, sold int) Insight {
	switch {
	case production > sold:
		return InsightPotentialWaste
	case production < sold:
		return InsightHighDemand
	default:
		return InsightBalanced
	}
}

// AccuracyItem is the per-product line of an accuracy report.
type AccuracyItem struct {
	ProductID   id.ID   `json:"productId"`
	ProductName string  `json:"productName"`
	Target      int     `json:"target"`
	Production  int     `json:"production"`
	Sold        int     `json:"sold"`
	Deviation   int     `json:"deviation"` // production - target
	SalesGap    int     `json:"salesGap"`  // production - sold
	Insight     Insight `json:"insight"`
}

// AccuracySummary totals an accuracy report.
type AccuracySummary struct {
	Products        int `json:"products"`
	TotalTarget     int `json:"totalTarget"`
	TotalProduction int `json:"totalProduction"`
	TotalSold       int `json:"totalSold"`
	TotalDeviation  int `json:"totalDeviation"`
	WasteCount      int `json:"wasteCount"`
	HighDemandCount int `json:"highDemandCount"`
	BalancedCount   int `json:"balancedCount"`
}

// AccuracyReport compares plans, realized production and sales for one day.
type AccuracyReport struct {
	BranchID *id.ID          `json:"branchId,omitempty"`
	Date     types.Day       `json:"date"`
	Items    []AccuracyItem  `json:"items"`
	Summary  AccuracySummary `json:"summary"`
}

// GetAccuracy builds the accuracy report. A nil branchID covers all branches.
// It has no side effects.
func (s *Service) GetAccuracy(ctx context.Context, branchID *id.ID, day types.Day) (*AccuracyReport, error) {
	ctx, span := tracer.Start(ctx, "production.GetAccuracy")
	defer span.End()

	report := &AccuracyReport{BranchID: branchID, Date: day, Items: []AccuracyItem{}}

	plans, err := s.plans.FindPlans(ctx, PlanFilter{BranchID: branchID, From: day.Start(), To: day.End()})
	if err != nil {
		return nil, fmt.Errorf("find plans: %w", err)
	}
	if len(plans) == 0 {
		return report, nil
	}

	sold := map[id.ID]int{}
	if !day.After(types.DayOf(s.now())) {
		sold, err = s.sales.SumSoldQuantityByProduct(ctx, branchID, day.Start(), day.End())
		if err != nil {
			return nil, fmt.Errorf("sum sold quantity: %w", err)
		}
	}

	byProduct := make(map[id.ID]*AccuracyItem)
	for i := range plans {
		p := &plans[i]
		item, ok := byProduct[p.ProductID]
		if !ok {
			item = &AccuracyItem{ProductID: p.ProductID, ProductName: p.ProductName}
			byProduct[p.ProductID] = item
		}
		item.Target += p.RecommendedQty
		if r := p.Latest(); r != nil {
			item.Production += r.ActualQty
		}
	}

	for pid, item := range byProduct {
		item.Sold = sold[pid]
		item.Deviation = item.Production - item.Target
		item.SalesGap = item.Production - item.Sold
		item.Insight = InsightFor(item.Production, item.Sold)
		report.Items = append(report.Items, *item)
	}
	sort.Slice(report.Items, func(i, j int) bool {
		a, b := report.Items[i], report.Items[j]
		if a.ProductName != b.ProductName {
			return a.ProductName < b.ProductName
		}
		return id.Compare(a.ProductID, b.ProductID) < 0
	})

	report.Summary = summarize(report.Items)
	return report, nil
}

func summarize(items []AccuracyItem) AccuracySummary {
	sum := AccuracySummary{Products: len(items)}
	for _, it := range items {
		sum.TotalTarget += it.Target
		sum.TotalProduction += it.Production
		sum.TotalSold += it.Sold
		switch it.Insight {
		case InsightPotentialWaste:
			sum.WasteCount++
		case InsightHighDemand:
			sum.HighDemandCount++
		default:
			sum.BalancedCount++
		}
	}
	sum.TotalDeviation = sum.TotalProduction - sum.TotalTarget
	return sum
}
