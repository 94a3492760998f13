package models

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestBandStack covers band placement and validation
func TestBandStack(t *testing.T) {
	s := NewBandStack(2, 2, []string{"B04", "B08"})
	if err := s.Validate(); err != nil {
		t.Fatalf("New stack should validate: %v", err)
	}

	if err := s.SetBand("B08", []float64{1, 2, 3, 4}); err != nil {
		t.Fatalf("SetBand failed: %v", err)
	}
	if px := s.Pixel(1, 1); px[0] != 0 || px[1] != 4 {
		t.Errorf("Expected pixel [0 4], got %v", px)
	}

	if err := s.SetBand("B02", []float64{1, 2, 3, 4}); err == nil {
		t.Errorf("Expected error for unknown band")
	}
	if err := s.SetBand("B04", []float64{1}); err == nil {
		t.Errorf("Expected error for short plane")
	}

	s.Data = s.Data[:3]
	if err := s.Validate(); err == nil {
		t.Errorf("Expected error for truncated data")
	}
	if err := (&BandStack{Width: 1, Height: 1}).Validate(); err == nil {
		t.Errorf("Expected error for stack without bands")
	}
}

// TestLayerChannel copies one channel out of interleaved data
func TestLayerChannel(t *testing.T) {
	l := NewLayer("rgb", 2, 1, 3)
	copy(l.Data, []float64{1, 2, 3, 4, 5, 6})

	g, err := l.Channel(1)
	if err != nil {
		t.Fatalf("Channel failed: %v", err)
	}
	if len(g) != 2 || g[0] != 2 || g[1] != 5 {
		t.Errorf("Expected [2 5], got %v", g)
	}
	if _, err := l.Channel(3); err == nil {
		t.Errorf("Expected error for channel out of range")
	}
	if px := l.At(1, 0); px[2] != 6 {
		t.Errorf("Expected 6, got %v", px[2])
	}
}

// TestPartitions covers every row exactly once
func TestPartitions(t *testing.T) {
	cases := []struct {
		height, rows, want int
	}{
		{10, 4, 3},
		{8, 4, 2},
		{3, 0, 3},
		{0, 4, 0},
	}

	for _, c := range cases {
		parts := Partitions(c.height, c.rows)
		if len(parts) != c.want {
			t.Errorf("Partitions(%d, %d): expected %d parts, got %d", c.height, c.rows, c.want, len(parts))
			continue
		}
		next := 0
		for i, p := range parts {
			if p.Index != i || p.StartRow != next || p.EndRow <= p.StartRow {
				t.Errorf("Partitions(%d, %d): bad partition %+v", c.height, c.rows, p)
			}
			next = p.EndRow
		}
		if next != c.height {
			t.Errorf("Partitions(%d, %d): rows end at %d", c.height, c.rows, next)
		}
	}
}

// TestConfigurationError checks formatting and unwrapping
func TestConfigurationError(t *testing.T) {
	err := ConfigErrorf(KindRule, "bloom", "rule has no assignment")
	wrapped := WithAlgorithm(fmt.Errorf("compiling: %w", err), "chlorophyll-a")

	var ce *ConfigurationError
	if !errors.As(wrapped, &ce) {
		t.Fatalf("Expected ConfigurationError in chain")
	}
	if ce.Algorithm != "chlorophyll-a" {
		t.Errorf("Expected algorithm to be stamped, got %q", ce.Algorithm)
	}
	if ce.Kind != KindRule || ce.Name != "bloom" {
		t.Errorf("Expected kind and name to be carried over, got %q %q", ce.Kind, ce.Name)
	}
	msg := wrapped.Error()
	if !strings.HasPrefix(msg, `configuration error in algorithm "chlorophyll-a" (rule "bloom")`) {
		t.Errorf("Unexpected message %q", msg)
	}
	if err.Algorithm != "" {
		t.Errorf("Expected wrapped error to be left untouched, got algorithm %q", err.Algorithm)
	}
	if !errors.Is(wrapped, err) {
		t.Errorf("Expected original error to stay in the chain")
	}

	direct := WithAlgorithm(err, "apa")
	if !errors.As(direct, &ce) || ce == err || ce.Algorithm != "apa" || ce.Err != err.Err {
		t.Errorf("Expected a stamped copy, got %v", direct)
	}
	if err.Algorithm != "" {
		t.Errorf("Expected original error to be left untouched, got algorithm %q", err.Algorithm)
	}
	if again := WithAlgorithm(direct, "ndvi"); again != direct {
		t.Errorf("Expected an already stamped error to be returned as is")
	}

	plain := WithAlgorithm(errors.New("boom"), "apa")
	if !IsConfigurationError(plain) {
		t.Errorf("Expected plain error to be wrapped")
	}
	if WithAlgorithm(nil, "apa") != nil {
		t.Errorf("Expected nil for nil error")
	}
}
