package render

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"spectralviz/internal/models"
)

// ChannelSummary holds descriptive statistics of one layer channel.
type ChannelSummary struct {
	Channel int
	Min     float64
	Max     float64
	Mean    float64
	StdDev  float64
	Median  float64
}

// LayerSummary describes a finished layer.
type LayerSummary struct {
	Name     string
	Title    string
	Width    int
	Height   int
	Visible  bool
	Channels []ChannelSummary
	RuleHits map[string]int
}

// Summarize computes per-channel statistics of a layer.
func Summarize(layer *models.Layer) LayerSummary {
	s := LayerSummary{
		Name:     layer.Name,
		Title:    layer.Title,
		Width:    layer.Width,
		Height:   layer.Height,
		Visible:  layer.Visible,
		RuleHits: layer.RuleHits,
	}
	for c := 0; c < layer.Channels; c++ {
		plane, err := layer.Channel(c)
		if err != nil || len(plane) == 0 {
			continue
		}
		s.Channels = append(s.Channels, summarizeChannel(c, plane))
	}
	return s
}

func summarizeChannel(c int, plane []float64) ChannelSummary {
	cs := ChannelSummary{
		Channel: c,
		Min:     floats.Min(plane),
		Max:     floats.Max(plane),
	}
	cs.Mean, cs.StdDev = stat.MeanStdDev(plane, nil)
	if len(plane) < 2 {
		cs.StdDev = 0
	}

	sorted := append([]float64(nil), plane...)
	sort.Float64s(sorted)
	cs.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return cs
}
