package history

import (
	"sort"
	"strings"
	"time"
)

// SplitBlocks splits log content on blank lines, trims whitespace from
// each block, and returns only non-empty blocks.
func SplitBlocks(content string) []string {
	raw := strings.Split(content, "\n\n")
	blocks := make([]string, 0, len(raw))
	for _, b := range raw {
		b = strings.TrimSpace(b)
		if b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// DayCutoff returns midnight N days ago (inclusive) in the local timezone.
// For days=1 it returns today at midnight, for days=7 it returns 6 days ago, etc.
func DayCutoff(days int) time.Time {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return today.AddDate(0, 0, -(days - 1))
}

// FilterBlocksByDays returns only log blocks whose timestamp falls within
// the last N calendar days. Each block is separated by a blank line.
func FilterBlocksByDays(content string, days int) string {
	cutoff := DayCutoff(days)

	var kept []string
	for _, block := range SplitBlocks(content) {
		firstLine := block
		if idx := strings.Index(block, "\n"); idx > 0 {
			firstLine = block[:idx]
		}
		ts, ok := ExtractTimestamp(firstLine)
		if !ok {
			continue
		}
		if !ts.In(cutoff.Location()).Before(cutoff) {
			kept = append(kept, block)
		}
	}
	return strings.Join(kept, "\n\n")
}

// DaySummary holds build and failure counts for one output path.
type DaySummary struct {
	Output string
	Builds int
	Failed int
}

// DayGroup holds all summaries for a single calendar day.
type DayGroup struct {
	Date      time.Time
	Summaries []DaySummary
}

// SummarizeByDay filters runs to the last N calendar days (local time),
// groups by date + output, and returns day groups sorted descending with
// summaries sorted alphabetically. Pass days=0 to include all runs.
func SummarizeByDay(runs []Run, days int) []DayGroup {
	now := time.Now()
	var cutoff time.Time
	if days > 0 {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		cutoff = today.AddDate(0, 0, -(days - 1))
	}

	type key struct {
		date   string
		output string
	}
	type counts struct {
		builds, failed int
	}
	grouped := map[key]*counts{}
	dates := map[string]time.Time{}

	for _, r := range runs {
		local := r.Time.In(now.Location())
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, now.Location())
		if days > 0 && day.Before(cutoff) {
			continue
		}

		ds := day.Format("2006-01-02")
		k := key{date: ds, output: r.Output}
		c, ok := grouped[k]
		if !ok {
			c = &counts{}
			grouped[k] = c
			dates[ds] = day
		}

		if r.Failed() {
			c.failed++
		} else {
			c.builds++
		}
	}

	dayMap := map[string]*DayGroup{}
	for k, c := range grouped {
		dg, ok := dayMap[k.date]
		if !ok {
			dg = &DayGroup{Date: dates[k.date]}
			dayMap[k.date] = dg
		}
		dg.Summaries = append(dg.Summaries, DaySummary{
			Output: k.output,
			Builds: c.builds,
			Failed: c.failed,
		})
	}

	// Sort summaries alphabetically within each day.
	for _, dg := range dayMap {
		sort.Slice(dg.Summaries, func(i, j int) bool {
			return dg.Summaries[i].Output < dg.Summaries[j].Output
		})
	}

	// Collect and sort days descending.
	groups := make([]DayGroup, 0, len(dayMap))
	for _, dg := range dayMap {
		groups = append(groups, *dg)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Date.After(groups[j].Date)
	})

	return groups
}

// Counts holds build and failure totals for one output.
type Counts struct{ Builds, Failed int }

// AggregatedData holds the result of aggregating day groups into
// per-output counts.
type AggregatedData struct {
	PerOutput   map[string]*Counts
	OutputOrder []string
	HasFailed   bool
}

// AggregateGroups collects per-output counts from day groups.
func AggregateGroups(groups []DayGroup) AggregatedData {
	ad := AggregatedData{
		PerOutput: map[string]*Counts{},
	}
	seen := map[string]bool{}

	for _, dg := range groups {
		for _, s := range dg.Summaries {
			c, ok := ad.PerOutput[s.Output]
			if !ok {
				c = &Counts{}
				ad.PerOutput[s.Output] = c
			}
			c.Builds += s.Builds
			c.Failed += s.Failed
			if c.Failed > 0 {
				ad.HasFailed = true
			}

			if !seen[s.Output] {
				seen[s.Output] = true
				ad.OutputOrder = append(ad.OutputOrder, s.Output)
			}
		}
	}
	sort.Strings(ad.OutputOrder)

	return ad
}

// HourOutput is the key for per-cell hourly data.
type HourOutput struct {
	Hour   int
	Output string
}

// HourlyData holds computed hourly breakdown data for a single day.
type HourlyData struct {
	Outputs      []string
	PerCell      map[HourOutput]int
	PerHour      map[int]int
	OutputTotals []int // parallel to Outputs
	MinHour      int
	MaxHour      int
	GrandTotal   int
}

// ComputeHourly computes the per-hour build breakdown for a target date.
// Only runs matching targetDate in the given location are included.
func ComputeHourly(runs []Run, targetDate time.Time, loc *time.Location) HourlyData {
	hd := HourlyData{
		PerCell: map[HourOutput]int{},
		PerHour: map[int]int{},
		MinHour: 24,
		MaxHour: -1,
	}
	outputSet := map[string]bool{}

	for _, r := range runs {
		local := r.Time.In(loc)
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		if !day.Equal(targetDate) {
			continue
		}
		h := local.Hour()
		hd.PerCell[HourOutput{h, r.Output}]++
		hd.PerHour[h]++
		outputSet[r.Output] = true
		if h < hd.MinHour {
			hd.MinHour = h
		}
		if h > hd.MaxHour {
			hd.MaxHour = h
		}
	}

	if len(hd.PerCell) == 0 {
		return hd
	}

	hd.Outputs = make([]string, 0, len(outputSet))
	for o := range outputSet {
		hd.Outputs = append(hd.Outputs, o)
	}
	sort.Strings(hd.Outputs)

	for _, c := range hd.PerHour {
		hd.GrandTotal += c
	}

	hd.OutputTotals = make([]int, len(hd.Outputs))
	for h := hd.MinHour; h <= hd.MaxHour; h++ {
		for i, o := range hd.Outputs {
			hd.OutputTotals[i] += hd.PerCell[HourOutput{h, o}]
		}
	}

	return hd
}
