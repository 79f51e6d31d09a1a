package dashboard

import (
	"context"
	"fmt"
	"html/template"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/zulandar/segdash/internal/models"
)

// View states. Every data fragment renders exactly one of them.
const (
	StateLoading = "loading"
	StateEmpty   = "empty"
	StateError   = "error"
	StateReady   = "ready"
)

// fragment is the data handed to a partial template.
type fragment struct {
	State string
	Error string
	Retry string // URL that reloads this fragment
	Data  any
}

// DistRow is one segment's share of a distribution.
type DistRow struct {
	Segment int
	Count   int
	Share   float64 // 0..100
}

// Breakdown is a distribution per category (e.g. education level).
type Breakdown struct {
	Label string
	Rows  []DistRow
	Total int
}

// DashboardView is the dashboard page model.
type DashboardView struct {
	*models.DashboardDTO
	Distribution  []DistRow
	Income        []Breakdown
	Education     []Breakdown
	MaritalStatus []Breakdown
}

func newDashboardView(d *models.DashboardDTO) DashboardView {
	return DashboardView{
		DashboardDTO:  d,
		Distribution:  distribution(d.SegmentDistribution),
		Income:        breakdowns(d.IncomeBySegment),
		Education:     breakdowns(d.EducationBySegment),
		MaritalStatus: breakdowns(d.MaritalStatusBySegment),
	}
}

// distribution sorts a segment->count map by segment id and computes shares.
func distribution(m map[int]int) []DistRow {
	total := 0
	for _, n := range m {
		total += n
	}
	rows := make([]DistRow, 0, len(m))
	for seg, n := range m {
		r := DistRow{Segment: seg, Count: n}
		if total > 0 {
			r.Share = float64(n) * 100 / float64(total)
		}
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Segment < rows[j].Segment })
	return rows
}

func breakdowns(m map[string]map[int]int) []Breakdown {
	out := make([]Breakdown, 0, len(m))
	for label, dist := range m {
		b := Breakdown{Label: label, Rows: distribution(dist)}
		for _, r := range b.Rows {
			b.Total += r.Count
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// files returns the signed-in user's uploaded file names, cached for filesTTL.
func (a *app) files(ctx context.Context) []string {
	key := a.filesKey()
	if v, ok := a.cache.Get(key); ok {
		return v.([]string)
	}
	files, err := a.api.Files(ctx)
	if err != nil {
		a.log.Warn("list files", zap.Error(err))
		return nil
	}
	sort.Strings(files)
	a.cache.Set(key, files, a.filesTTL)
	return files
}

// filesKey scopes the cached file list to the current user so a new
// session never sees the previous one's files.
func (a *app) filesKey() string {
	return "files:" + strconv.Itoa(a.store.Current().UserID)
}

var templateFuncs = template.FuncMap{
	"money":   money,
	"number":  number,
	"percent": percent,
	"decimal": func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
	"intp": func(v *int) string {
		if v == nil {
			return "—"
		}
		return strconv.Itoa(*v)
	},
	"floatp": func(v *float64) string {
		if v == nil {
			return "—"
		}
		return number(*v)
	},
	"list": func(v ...string) []string { return v },
	"segp": func(v *int) string {
		if v == nil {
			return "unassigned"
		}
		return "Segment " + strconv.Itoa(*v)
	},
}

// number formats v with thousands separators and no decimals.
func number(v float64) string {
	neg := v < 0
	s := strconv.FormatFloat(math.Abs(math.Round(v)), 'f', 0, 64)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func money(v float64) string {
	if v < 0 {
		return "-$" + number(-v)
	}
	return "$" + number(v)
}

// percent renders a rate. Values in [0,1] are treated as fractions.
func percent(v float64) string {
	if v >= 0 && v <= 1 {
		v *= 100
	}
	return fmt.Sprintf("%.1f%%", v)
}
