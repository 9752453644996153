package report

import (
	"sort"
	"time"

	"github.com/JakeFAU/anp-fuel-report/internal/fuel"
)

// MonthlyMean is the mean sale value of one calendar month.
type MonthlyMean struct {
	Month time.Time
	Mean  float64
	Count int
}

// StateMean is the mean sale value of one state.
type StateMean struct {
	State string
	Mean  float64
	Count int
}

// StateRatio compares ethanol to gasoline in one state.
type StateRatio struct {
	State     string
	Ethanol   float64
	Gasoline  float64
	Ratio     float64
	Favorable bool
}

type accumulator struct {
	sum   float64
	count int
}

func (a *accumulator) add(v float64) {
	a.sum += v
	a.count++
}

func (a accumulator) mean() float64 {
	return a.sum / float64(a.count)
}

// MonthlyMeans averages records of product per calendar month, oldest first.
// An empty product matches every record. Months without records are absent.
func MonthlyMeans(records []fuel.Record, product string) []MonthlyMean {
	byMonth := map[time.Time]*accumulator{}
	for _, r := range records {
		if product != "" && r.Product != product {
			continue
		}
		month := time.Date(r.Date.Year(), r.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
		acc, ok := byMonth[month]
		if !ok {
			acc = &accumulator{}
			byMonth[month] = acc
		}
		acc.add(r.Value)
	}

	out := make([]MonthlyMean, 0, len(byMonth))
	for month, acc := range byMonth {
		out = append(out, MonthlyMean{Month: month, Mean: acc.mean(), Count: acc.count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

// StateMeans averages records of product per state, cheapest first. Ties sort by state.
func StateMeans(records []fuel.Record, product string) []StateMean {
	byState := map[string]*accumulator{}
	for _, r := range records {
		if product != "" && r.Product != product {
			continue
		}
		acc, ok := byState[r.State]
		if !ok {
			acc = &accumulator{}
			byState[r.State] = acc
		}
		acc.add(r.Value)
	}

	out := make([]StateMean, 0, len(byState))
	for state, acc := range byState {
		out = append(out, StateMean{State: state, Mean: acc.mean(), Count: acc.count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mean != out[j].Mean {
			return out[i].Mean < out[j].Mean
		}
		return out[i].State < out[j].State
	})
	return out
}

// Extremes returns the n cheapest and the n most expensive entries of an ascending
// slice. Both keep ascending order and may overlap when fewer than 2n states exist.
func Extremes(means []StateMean, n int) (cheapest, priciest []StateMean) {
	if n > len(means) {
		n = len(means)
	}
	return means[:n], means[len(means)-n:]
}

// EthanolRatios cross-tabulates state means by product and derives ethanol/gasoline.
// States lacking either product are left out. Lowest ratio first.
func EthanolRatios(records []fuel.Record, parity float64) []StateRatio {
	type pair struct {
		ethanol, gasoline accumulator
	}
	byState := map[string]*pair{}
	for _, r := range records {
		if r.Product != fuel.ProductEthanol && r.Product != fuel.ProductGasoline {
			continue
		}
		p, ok := byState[r.State]
		if !ok {
			p = &pair{}
			byState[r.State] = p
		}
		if r.Product == fuel.ProductEthanol {
			p.ethanol.add(r.Value)
		} else {
			p.gasoline.add(r.Value)
		}
	}

	out := make([]StateRatio, 0, len(byState))
	for state, p := range byState {
		if p.ethanol.count == 0 || p.gasoline.count == 0 {
			continue
		}
		gasoline := p.gasoline.mean()
		if gasoline == 0 {
			continue
		}
		ratio := p.ethanol.mean() / gasoline
		out = append(out, StateRatio{
			State:     state,
			Ethanol:   p.ethanol.mean(),
			Gasoline:  gasoline,
			Ratio:     ratio,
			Favorable: ratio <= parity,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ratio != out[j].Ratio {
			return out[i].Ratio < out[j].Ratio
		}
		return out[i].State < out[j].State
	})
	return out
}
