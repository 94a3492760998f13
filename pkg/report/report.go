// Package report prints catalogs, algorithm definitions, pixel explanations
// and render summaries as terminal tables.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"spectralviz/pkg/algorithm"
	"spectralviz/pkg/bands"
	"spectralviz/pkg/classify"
	"spectralviz/pkg/expr"
	"spectralviz/pkg/index"
	"spectralviz/pkg/render"
)

// Style is applied to every table. The CLI switches to a coloured style with
// --color.
var Style = table.StyleLight

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(Style)
	if title != "" {
		t.SetTitle("%s", title)
	}
	return t
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "undefined"
	}
	return fmt.Sprintf("%.4f", v)
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = formatValue(x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func guard(c expr.Cond) string {
	if expr.IsAlways(c) {
		return "otherwise"
	}
	return c.String()
}

// Algorithms lists the catalog.
func Algorithms(w io.Writer, algs []*algorithm.Algorithm) {
	t := newTable(w, "Algorithms")
	t.AppendHeader(table.Row{"Name", "Title", "Channels", "Bands", "Indices", "Visible"})
	for _, a := range algs {
		t.AppendRow(table.Row{
			a.Name(),
			a.Title(),
			a.Channels(),
			strings.Join(a.Bands(), " "),
			strings.Join(a.Indices().Names(), " "),
			a.Visible(),
		})
	}
	t.AppendFooter(table.Row{"Total", len(algs)})
	t.Render()
}

// Describe prints everything a compiled algorithm is made of: bands and the
// roles they are bound to, parameters, indices with their formulas, stages
// and output rules.
func Describe(w io.Writer, a *algorithm.Algorithm) {
	def := a.Definition()

	fmt.Fprintf(w, "%s (%s)\n", a.Title(), a.Name())
	if a.Description() != "" {
		fmt.Fprintln(w, a.Description())
	}
	in, out := a.Scaler().In(), a.Scaler().Out()
	fmt.Fprintf(w, "input [%g, %g] -> output [%g, %g]\n\n", in.Min, in.Max, out.Min, out.Max)

	binding := a.Binding()
	roles := make(map[string][]string)
	for r := bands.Role(0); r < bands.NumRoles; r++ {
		roles[binding[r]] = append(roles[binding[r]], r.String())
	}
	bt := newTable(w, "Bands")
	bt.AppendHeader(table.Row{"Band", "Wavelength (nm)", "Resolution (m)", "Roles"})
	for _, name := range a.Bands() {
		b, _ := bands.Lookup(name)
		bt.AppendRow(table.Row{name, b.Wavelength, b.Resolution, strings.Join(roles[name], " ")})
	}
	bt.Render()

	if len(def.Params) > 0 {
		names := make([]string, 0, len(def.Params))
		for name := range def.Params {
			names = append(names, name)
		}
		sort.Strings(names)

		pt := newTable(w, "Parameters")
		pt.AppendHeader(table.Row{"Name", "Value"})
		for _, name := range names {
			pt.AppendRow(table.Row{name, def.Params[name]})
		}
		pt.Render()
	}

	set := a.Indices()
	if set.Len() > 0 {
		it := newTable(w, "Indices")
		it.AppendHeader(table.Row{"Name", "Formula"})
		for _, name := range set.Names() {
			it.AppendRow(table.Row{name, set.Describe(name)})
		}
		it.Render()
	}

	for _, s := range a.Stages() {
		rules(w, "Stage "+s.Var, s.Tree.Rules())
	}
	rules(w, "Rules", a.Rules().Rules())
}

func rules(w io.Writer, title string, rs []classify.Rule) {
	t := newTable(w, title)
	t.AppendHeader(table.Row{"#", "Name", "When", "Then"})
	for i, r := range rs {
		t.AppendRow(table.Row{i + 1, r.Name, guard(r.When), r.Then.String()})
	}
	t.Render()
}

// Explanation prints the trace of one pixel evaluation.
func Explanation(w io.Writer, ex *algorithm.Explanation) {
	t := newTable(w, "Pixel "+ex.Algorithm)
	t.AppendHeader(table.Row{"Kind", "Name", "Value", "Needed"})
	for _, b := range ex.Bands {
		t.AppendRow(table.Row{"band", b.Name, formatValue(b.Value), ""})
	}
	if len(ex.Indices) > 0 {
		t.AppendSeparator()
	}
	for _, v := range ex.Indices {
		needed := "no"
		if v.Computed {
			needed = "yes"
		}
		t.AppendRow(table.Row{"index", v.Name, formatValue(v.Value), needed})
	}
	if len(ex.Stages) > 0 {
		t.AppendSeparator()
	}
	for _, s := range ex.Stages {
		t.AppendRow(table.Row{"stage", s.Var, formatValue(s.Value), s.Rule})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"rule", ex.Rule, formatVector(ex.Raw), ""})
	t.AppendFooter(table.Row{"output", "", formatVector(ex.Scaled), ""})
	t.Render()
}

// Summaries prints per-channel statistics and rule hit counts of rendered
// layers.
func Summaries(w io.Writer, summaries []render.LayerSummary) {
	t := newTable(w, "Layers")
	t.AppendHeader(table.Row{"Layer", "Size", "Channel", "Min", "Max", "Mean", "StdDev", "Median"})
	for i, s := range summaries {
		if i > 0 {
			t.AppendSeparator()
		}
		size := fmt.Sprintf("%dx%d", s.Width, s.Height)
		for j, c := range s.Channels {
			name := s.Name
			if j > 0 {
				name, size = "", ""
			}
			t.AppendRow(table.Row{
				name, size, c.Channel,
				formatValue(c.Min), formatValue(c.Max),
				formatValue(c.Mean), formatValue(c.StdDev), formatValue(c.Median),
			})
		}
	}
	t.Render()

	ht := newTable(w, "Rule hits")
	ht.AppendHeader(table.Row{"Layer", "Rule", "Pixels", "Share"})
	for _, s := range summaries {
		total := 0
		names := make([]string, 0, len(s.RuleHits))
		for name, n := range s.RuleHits {
			names = append(names, name)
			total += n
		}
		// Most frequent first
		sort.Slice(names, func(i, j int) bool {
			if s.RuleHits[names[i]] != s.RuleHits[names[j]] {
				return s.RuleHits[names[i]] > s.RuleHits[names[j]]
			}
			return names[i] < names[j]
		})
		for _, name := range names {
			n := s.RuleHits[name]
			share := 0.0
			if total > 0 {
				share = 100 * float64(n) / float64(total)
			}
			ht.AppendRow(table.Row{s.Name, name, n, fmt.Sprintf("%.1f%%", share)})
		}
	}
	ht.Render()
}

// Formulas lists the built-in index formulas.
func Formulas(w io.Writer) {
	t := newTable(w, "Formulas")
	t.AppendHeader(table.Row{"Name", "Roles", "Formula"})
	for _, b := range index.Builtins() {
		roles := make([]string, len(b.Roles))
		for i, r := range b.Roles {
			roles[i] = r.String()
		}
		t.AppendRow(table.Row{b.Name, strings.Join(roles, " "), b.Description})
	}
	t.Render()
}
