package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/Mavwarf/mkicns/internal/config"
	"github.com/Mavwarf/mkicns/internal/history"
	"github.com/Mavwarf/mkicns/internal/paths"
)

func historyCmd(args []string, configPath string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		fatal("%v", err)
	}
	st, err := history.Open(paths.DataDir(), cfg.Options.HistoryBackend)
	if err != nil {
		fatal("%v", err)
	}
	if c, ok := st.(io.Closer); ok {
		defer c.Close()
	}

	if len(args) > 0 {
		switch args[0] {
		case "summary":
			historySummary(args[1:], st)
			return
		case "clear":
			historyClear(st)
			return
		case "clean":
			historyClean(args[1:], st)
			return
		case "export":
			historyExport(args[1:], st)
			return
		case "watch":
			historyWatch(st)
			return
		}
	}

	historyShow(args, st)
}

// historyShow prints the last N raw log blocks.
func historyShow(args []string, st history.Store) {
	count := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			fmt.Fprintf(os.Stderr, "Error: count must be a positive integer\n")
			os.Exit(1)
		}
		count = n
	}

	content, err := st.ReadContent()
	if err != nil {
		fatal("%v", err)
	}

	blocks := history.SplitBlocks(content)
	if len(blocks) == 0 {
		fmt.Println("No runs recorded yet.")
		return
	}
	if len(blocks) > count {
		blocks = blocks[len(blocks)-count:]
	}
	for i, b := range blocks {
		fmt.Print(b)
		fmt.Println()
		if i < len(blocks)-1 {
			fmt.Println()
		}
	}
}

func historySummary(args []string, st history.Store) {
	days := 7
	if len(args) > 0 {
		if args[0] == "all" {
			days = 0
		} else {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				fmt.Fprintf(os.Stderr, "Error: days must be a positive integer or \"all\"\n")
				os.Exit(1)
			}
			days = n
		}
	}

	runs, err := st.Runs(days)
	if err != nil {
		fatal("%v", err)
	}
	groups := history.SummarizeByDay(runs, days)

	if len(groups) == 0 {
		if days == 0 {
			fmt.Println("No runs recorded yet.")
		} else {
			fmt.Println("No runs in the last", days, "days.")
		}
		return
	}

	var out strings.Builder
	renderSummaryTable(&out, groups, nil)
	fmt.Print(out.String())
}

// --- Table layout constants ---

const (
	colOutput = 28 // width of the output path column
	colNumber = 7  // width of numeric columns (Total, Failed, New)
	colGap    = 2  // gap between numeric columns
	colPct    = 5  // width of percentage column (fits " 100%")
	// Base separator width covers the fixed columns: output, Total, and %.
	sepBase       = colOutput + colNumber + colGap + 1 + colGap + colPct
	sepPerCol     = colGap + colNumber
	watchInterval = 2 * time.Second
)

// --- ANSI color helpers (disabled when NO_COLOR env var is set) ---

var noColor = os.Getenv("NO_COLOR") != ""

func ansi(code, s string) string {
	if noColor {
		return s
	}
	return code + s + "\033[0m"
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

func bold(s string) string   { return ansi("\033[1m", s) }
func dim(s string) string    { return ansi("\033[2m", s) }
func cyan(s string) string   { return ansi("\033[36m", s) }
func green(s string) string  { return ansi("\033[32m", s) }
func yellow(s string) string { return ansi("\033[33m", s) }

// fmtNum formats an integer with dot as thousands separator (e.g. 1234 → "1.234").
func fmtNum(n int) string {
	neg := ""
	if n < 0 {
		neg = "-"
		n = -n
	}
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return neg + s
	}
	var buf strings.Builder
	r := len(s) % 3
	if r > 0 {
		buf.WriteString(s[:r])
	}
	for i := r; i < len(s); i += 3 {
		if buf.Len() > 0 {
			buf.WriteByte('.')
		}
		buf.WriteString(s[i : i+3])
	}
	return neg + buf.String()
}

// fmtPct formats n as a percentage of total (e.g. "68%"), or "" if total is 0.
func fmtPct(n, total int) string {
	if total == 0 {
		return ""
	}
	return strconv.Itoa(n*100/total) + "%"
}

// padL pads s to width with spaces on the left.
func padL(s string, width int) string {
	if pad := width - len(s); pad > 0 {
		return strings.Repeat(" ", pad) + s
	}
	return s
}

// padR pads s to width with spaces on the right.
func padR(s string, width int) string {
	if pad := width - len(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}

// colorPadL applies a color function to s, then left-pads to width
// (accounting for invisible ANSI escape bytes).
func colorPadL(colorFn func(string) string, s string, width int) string {
	colored := colorFn(s)
	return padL(colored, width+(len(colored)-len(s)))
}

// renderSummaryTable writes a formatted table of per-output build stats.
// When baseline is non-nil (watch mode), a "New" column shows deltas.
func renderSummaryTable(w *strings.Builder, groups []history.DayGroup, baseline map[string]int) {
	ad := history.AggregateGroups(groups)
	hasNew := baseline != nil

	grandBuilds, grandFailed := 0, 0
	for _, c := range ad.PerOutput {
		grandBuilds += c.Builds
		grandFailed += c.Failed
	}
	grandTotal := grandBuilds + grandFailed

	sep := dim("  " + strings.Repeat("─", sepBase+sepPerCol*btoi(ad.HasFailed)+sepPerCol*btoi(hasNew)))

	// Date line.
	if len(groups) == 1 {
		dg := groups[0]
		fmt.Fprintf(w, "%s\n", dim(fmt.Sprintf("%s  (%s)", dg.Date.Format("2006-01-02"), dg.Date.Format("Monday"))))
	} else {
		fmt.Fprintf(w, "%s\n", dim(fmt.Sprintf("%s — %s",
			groups[0].Date.Format("2006-01-02"),
			groups[len(groups)-1].Date.Format("2006-01-02"))))
	}

	// Column header.
	hdr := fmt.Sprintf("  %-*s %*s  %*s", colOutput, "", colNumber, "Total", colPct, "%")
	if ad.HasFailed {
		hdr += fmt.Sprintf("  %*s", colNumber, "Failed")
	}
	if hasNew {
		hdr += fmt.Sprintf("  %*s", colNumber, "New")
	}
	w.WriteString(bold(hdr) + "\n")
	w.WriteString(sep + "\n")

	// One row per output path.
	totalNew := 0
	for _, output := range ad.OutputOrder {
		c := ad.PerOutput[output]
		rowTotal := c.Builds + c.Failed

		w.WriteString("  " + padR(cyan(output), colOutput+(len(cyan(output))-len(output))))
		w.WriteString(" " + padL(fmtNum(rowTotal), colNumber))
		w.WriteString("  " + padL(fmtPct(rowTotal, grandTotal), colPct))
		if ad.HasFailed {
			if c.Failed > 0 {
				w.WriteString("  " + colorPadL(yellow, fmtNum(c.Failed), colNumber))
			} else {
				w.WriteString(fmt.Sprintf("  %*s", colNumber, ""))
			}
		}
		if hasNew {
			n := rowTotal - baseline[output]
			if n > 0 {
				w.WriteString("  " + colorPadL(green, "+"+fmtNum(n), colNumber))
				totalNew += n
			} else {
				w.WriteString(fmt.Sprintf("  %*s", colNumber, ""))
			}
		}
		w.WriteString("\n")
	}

	// Total row.
	w.WriteString(sep + "\n")
	w.WriteString(bold(fmt.Sprintf("  %-*s %*s  %*s", colOutput, "Total", colNumber, fmtNum(grandTotal), colPct, "")))
	if ad.HasFailed {
		if grandFailed > 0 {
			w.WriteString("  " + colorPadL(yellow, fmtNum(grandFailed), colNumber))
		} else {
			w.WriteString(fmt.Sprintf("  %*s", colNumber, ""))
		}
	}
	if hasNew {
		if totalNew > 0 {
			w.WriteString("  " + colorPadL(green, "+"+fmtNum(totalNew), colNumber))
		} else {
			w.WriteString(fmt.Sprintf("  %*s", colNumber, ""))
		}
	}
	w.WriteString("\n")
}

// renderHourlyTable writes a per-hour breakdown of today's runs.
// Columns: one per output + a Total column, rows: one per hour from first
// activity to the current hour.
func renderHourlyTable(w *strings.Builder, runs []history.Run) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	hd := history.ComputeHourly(runs, today, now.Location())
	if len(hd.PerCell) == 0 {
		return
	}

	// Extend to the current hour so quiet periods are visible.
	maxHour := hd.MaxHour
	if curH := now.Hour(); curH > maxHour {
		maxHour = curH
	}

	// Column widths: at least colNumber, or the output name length.
	colWidths := make([]int, len(hd.Outputs))
	for i, o := range hd.Outputs {
		ow := len(o)
		if ow < colNumber {
			ow = colNumber
		}
		colWidths[i] = ow
	}

	const colHr = 7  // "HH:00" + padding
	const colTot = 7 // "Total"

	sepW := colHr
	for _, cw := range colWidths {
		sepW += colGap + cw
	}
	sepW += colGap + colTot + colGap + colPct

	w.WriteString("\n")

	hdr := bold(fmt.Sprintf("  %-*s", colHr, "Hour"))
	for i, o := range hd.Outputs {
		hdr += "  " + colorPadL(cyan, o, colWidths[i])
	}
	hdr += bold(fmt.Sprintf("  %*s  %*s", colTot, "Total", colPct, "%"))
	w.WriteString(hdr + "\n")

	sep := dim("  " + strings.Repeat("─", sepW))
	w.WriteString(sep + "\n")

	for h := hd.MinHour; h <= maxHour; h++ {
		row := fmt.Sprintf("  %-*s", colHr, fmt.Sprintf("%02d:00", h))
		for i, o := range hd.Outputs {
			c := hd.PerCell[history.HourOutput{Hour: h, Output: o}]
			if c > 0 {
				row += "  " + padL(fmtNum(c), colWidths[i])
			} else {
				row += "  " + colorPadL(dim, "-", colWidths[i])
			}
		}
		ht := hd.PerHour[h]
		if ht > 0 {
			row += "  " + padL(fmtNum(ht), colTot)
			row += "  " + padL(fmtPct(ht, hd.GrandTotal), colPct)
		} else {
			row += "  " + colorPadL(dim, "-", colTot)
			row += fmt.Sprintf("  %*s", colPct, "")
		}
		w.WriteString(row + "\n")
	}

	w.WriteString(sep + "\n")
	totRow := fmt.Sprintf("  %-*s", colHr, "Total")
	for i := range hd.Outputs {
		totRow += "  " + padL(fmtNum(hd.OutputTotals[i]), colWidths[i])
	}
	totRow += fmt.Sprintf("  %*s  %*s", colTot, fmtNum(hd.GrandTotal), colPct, "")
	w.WriteString(bold(totRow) + "\n")
}

// buildBaseline snapshots current per-output totals for watch delta tracking.
func buildBaseline(groups []history.DayGroup) map[string]int {
	b := map[string]int{}
	for _, dg := range groups {
		for _, s := range dg.Summaries {
			b[s.Output] += s.Builds + s.Failed
		}
	}
	return b
}

func historyClear(st history.Store) {
	if err := st.Clear(); err != nil {
		fatal("%v", err)
	}
	fmt.Println("History cleared.")
}

func historyClean(args []string, st history.Store) {
	if len(args) == 0 {
		// No days argument: clear everything.
		historyClear(st)
		return
	}

	days, err := strconv.Atoi(args[0])
	if err != nil || days <= 0 {
		fmt.Fprintf(os.Stderr, "Error: days must be a positive integer\n")
		os.Exit(1)
	}

	removed, err := st.Clean(days)
	if err != nil {
		fatal("%v", err)
	}
	if removed == 0 {
		fmt.Printf("Nothing to remove (kept last %d days).\n", days)
		return
	}
	fmt.Printf("Removed %d runs (kept last %d days).\n", removed, days)
}

func historyExport(args []string, st history.Store) {
	days := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			fmt.Fprintf(os.Stderr, "Error: days must be a positive integer\n")
			os.Exit(1)
		}
		days = n
	}

	runs, err := st.Runs(days)
	if err != nil {
		fatal("%v", err)
	}

	type exportRun struct {
		Time     string `json:"time"`
		Source   string `json:"source"`
		Output   string `json:"output"`
		Files    int    `json:"files,omitempty"`
		Bytes    int64  `json:"bytes,omitempty"`
		Duration string `json:"duration,omitempty"`
		Status   string `json:"status"`
		Error    string `json:"error,omitempty"`
	}
	out := make([]exportRun, len(runs))
	for i, r := range runs {
		out[i] = exportRun{
			Time:   r.Time.Format(time.RFC3339),
			Source: r.Source,
			Output: r.Output,
			Files:  r.Files,
			Bytes:  r.Bytes,
			Status: r.Status,
			Error:  r.Error,
		}
		if r.Duration > 0 {
			out[i].Duration = r.Duration.String()
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}

func historyWatch(st history.Store) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot enter raw mode: %v\n", err)
		os.Exit(1)
	}
	defer term.Restore(fd, oldState)

	keys := make(chan byte, 1)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				keys <- buf[0]
			}
			if err != nil {
				return
			}
		}
	}()

	var baseline map[string]int
	started := time.Now()
	for {
		elapsed := time.Since(started).Truncate(time.Second)
		var out strings.Builder
		out.WriteString("\033[2J\033[H")
		fmt.Fprintf(&out, "mkicns history watch  —  started %s (%s)  —  press x to exit\n\n",
			started.Format("15:04:05"), dim(elapsed.String()))

		runs, err := st.Runs(1)
		if err != nil {
			fmt.Fprintf(&out, "Error: %v\n", err)
		} else {
			groups := history.SummarizeByDay(runs, 1)
			if len(groups) == 0 {
				out.WriteString("No runs today.\n")
			} else {
				// Capture baseline on first render.
				if baseline == nil {
					baseline = buildBaseline(groups)
				}
				renderSummaryTable(&out, groups, baseline)
				renderHourlyTable(&out, runs)
			}
		}

		// In raw mode \n doesn't include \r, so convert.
		os.Stdout.WriteString(strings.ReplaceAll(out.String(), "\n", "\r\n"))

		timer := time.NewTimer(watchInterval)
		select {
		case key := <-keys:
			timer.Stop()
			if key == 'x' || key == 'X' || key == 3 { // x, X, or Ctrl+C
				os.Stdout.WriteString("\033[2J\033[H")
				return
			}
		case <-timer.C:
		}
	}
}
