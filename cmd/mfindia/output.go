package main

import (
	"fmt"
	"io"

	"github.com/seenimoa/mfindia/pkg/models"
	"github.com/seenimoa/mfindia/pkg/utils"
)

func printSchemes(w io.Writer, schemes []models.Scheme) {
	if len(schemes) == 0 {
		fmt.Fprintln(w, "No matching schemes.")
		return
	}
	for _, s := range schemes {
		fmt.Fprintf(w, "%-8s %s\n", s.Code, s.Name)
	}
}

func printQuote(w io.Writer, q *models.SchemeQuote) {
	if q.Empty() {
		fmt.Fprintln(w, "No NAV published for this scheme.")
		return
	}
	fmt.Fprintf(w, "%s (%s)\n", q.SchemeName, q.SchemeCode)
	fmt.Fprintf(w, "  %-14s %s\n", "NAV:", q.NAV)
	fmt.Fprintf(w, "  %-14s %s\n", "Last updated:", q.LastUpdated)
}

func printDetails(w io.Writer, d *models.SchemeDetails) {
	fmt.Fprintf(w, "%s (%s)\n", d.SchemeName, d.SchemeCode)
	fmt.Fprintf(w, "  %-14s %s\n", "Fund house:", d.FundHouse)
	fmt.Fprintf(w, "  %-14s %s\n", "Type:", d.SchemeType)
	fmt.Fprintf(w, "  %-14s %s\n", "Category:", d.SchemeCategory)
	fmt.Fprintf(w, "  %-14s %s (NAV %s)\n", "Started:", d.SchemeStartDate.Date, d.SchemeStartDate.NAV)
}

func printHistory(w io.Writer, h *models.HistoricalNAV) {
	fmt.Fprintf(w, "%s (%s)\n", h.SchemeName, h.SchemeCode)
	if !h.Data.OK() {
		fmt.Fprintf(w, "  %s\n", h.Data.Unavailable)
		return
	}
	for _, e := range h.Data.Entries {
		fmt.Fprintf(w, "  %-10s  %s\n", e.Date, e.NAV)
	}
}

func printCategory(w io.Writer, cp models.CategoryPerformance) {
	fmt.Fprintf(w, "%s (NAV date %s)\n", cp.Category.Name, cp.NAVDate)
	if !cp.OK() {
		fmt.Fprintf(w, "  %s\n\n", cp.Unavailable)
		return
	}
	fmt.Fprintf(w, "  %-50s %10s %10s %9s %9s %9s\n", "Scheme", "NAV Reg", "NAV Dir", "1Y Dir", "3Y Dir", "5Y Dir")
	for _, r := range cp.Rows {
		fmt.Fprintf(w, "  %-50.50s %10s %10s %9s %9s %9s\n",
			r.SchemeName, r.NAVRegular, r.NAVDirect,
			utils.FormatPct(r.Return1YDirect), utils.FormatPct(r.Return3YDirect), utils.FormatPct(r.Return5YDirect))
	}
	fmt.Fprintln(w)
}
