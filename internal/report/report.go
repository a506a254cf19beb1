// Package report renders repair results for terminals: forests as trees,
// everything else as tables.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"skinrepair/internal/batch"
	"skinrepair/internal/diff"
	"skinrepair/internal/repair"
)

// Marker decorates one forest entry, e.g. with a missing or fixed tag.
type Marker func(n *diff.BoneNode) string

// Forest writes forest as an indented tree under title.
func Forest(w io.Writer, title string, forest []*diff.BoneNode, mark Marker) {
	l := list.NewWriter()
	l.SetStyle(list.StyleConnectedRounded)
	l.SetOutputMirror(w)
	fmt.Fprintf(w, "%s (%d)\n", text.Bold.Sprint(title), diff.CountNodes(forest))
	if len(forest) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	var add func(nodes []*diff.BoneNode)
	add = func(nodes []*diff.BoneNode) {
		for _, n := range nodes {
			item := n.Name
			if mark != nil {
				if m := mark(n); m != "" {
					item += " " + m
				}
			}
			l.AppendItem(item)
			if len(n.Children) > 0 {
				l.Indent()
				add(n.Children)
				l.UnIndent()
			}
		}
	}
	add(forest)
	l.Render()
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Color.Row = text.Colors{text.Reset}
	return t
}

// Rebind writes one rebind result and its lost bones.
func Rebind(w io.Writer, title string, res repair.RebindResult) {
	t := newTable(w)
	t.SetTitle(title)
	root := "-"
	if res.RootBone != nil {
		root = res.RootBone.Name()
	}
	t.AppendRows([]table.Row{
		{"Bones matched", fmt.Sprintf("%d/%d", res.Matched, res.Total)},
		{"Match rate", fmt.Sprintf("%.1f%%", res.Rate()*100)},
		{"Root bone", fmt.Sprintf("%s (%s)", root, res.RootSource)},
		{"Default materials", res.Defaulted},
	})
	if len(res.Lost) > 0 {
		t.AppendSeparator()
		for i, name := range res.Lost {
			label := ""
			if i == 0 {
				label = text.FgRed.Sprint("Lost")
			}
			t.AppendRow(table.Row{label, name})
		}
	}
	t.Render()
}

// Analysis writes a bone-match analysis with up to limit unmatched names.
func Analysis(w io.Writer, a repair.MatchAnalysis, limit int) {
	t := newTable(w)
	t.SetTitle("Bone match analysis")
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	t.AppendRows([]table.Row{
		{"Source bones", a.SourceBones},
		{"Target bone names", a.TargetNames},
		{"Matched", a.Matched},
		{"Match rate", fmt.Sprintf("%.1f%%", a.Rate()*100)},
	})
	t.Render()

	if len(a.Unmatched) == 0 {
		return
	}
	u := newTable(w)
	u.AppendHeader(table.Row{"#", "Unmatched bone"})
	for i, name := range a.Unmatched {
		if limit > 0 && i == limit {
			u.AppendRow(table.Row{"", fmt.Sprintf("... %d more", len(a.Unmatched)-limit)})
			break
		}
		u.AppendRow(table.Row{i + 1, name})
	}
	u.Render()
}

// Batch writes one row per job followed by the run summary.
func Batch(w io.Writer, results []batch.Result) {
	t := newTable(w)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	t.AppendHeader(table.Row{"Job", "Result", "Missing bones", "Missing meshes", "Time", "Detail"})
	for _, r := range results {
		state := text.FgGreen.Sprint("ok")
		detail := r.CompareRoot
		switch {
		case !r.Success:
			state, detail = text.FgRed.Sprint("failed"), r.Error
		case r.FixedBones > 0 || r.FixedMeshes > 0:
			state = text.FgYellow.Sprint("fixed")
			detail = fmt.Sprintf("%d bones, %d meshes rebuilt", r.FixedBones, r.FixedMeshes)
		case r.MissingBones > 0 || r.MissingMeshes > 0:
			state = text.FgYellow.Sprint("damaged")
		}
		t.AppendRow(table.Row{r.Name, state, r.MissingBones, r.MissingMeshes, r.Duration.Round(time.Millisecond), detail})
	}
	s := batch.Summarize(results)
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d jobs", s.Jobs),
		fmt.Sprintf("%d ok / %d failed", s.Succeeded, s.Failed),
		s.MissingBones, s.MissingMeshes, "",
		fmt.Sprintf("%d clean", s.Clean),
	})
	t.Render()
}
