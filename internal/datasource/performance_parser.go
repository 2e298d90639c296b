package datasource

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/mfindia/pkg/models"
)

// PerformanceTableParser turns a Value Research performance page into rows.
// Any error means the page layout was not understood; callers discard the page.
type PerformanceTableParser interface {
	Parse(r io.Reader) ([]models.PerformanceRow, error)
}

// ErrPerformanceLayout is returned when a row lacks an expected cell.
var ErrPerformanceLayout = errors.New("unexpected performance table layout")

// Value Research cell classes. The return columns are matched on the exact
// class attribute.
const (
	vrNAVSelector  = "td.nav.text-right"
	vrReturn1Y     = "1Y text-right"
	vrReturn3Y     = "3Y text-right hidden"
	vrReturn5Y     = "5Y text-right hidden"
	vrRowsSelector = "table tbody tr"
)

// GoqueryTableParser is the default PerformanceTableParser.
type GoqueryTableParser struct{}

// Parse implements PerformanceTableParser.
func (GoqueryTableParser) Parse(r io.Reader) ([]models.PerformanceRow, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse performance HTML: %w", err)
	}
	if doc.Find("table").Length() == 0 {
		return nil, fmt.Errorf("%w: no table", ErrPerformanceLayout)
	}

	rows := []models.PerformanceRow{}
	var parseErr error
	doc.Find(vrRowsSelector).EachWithBreak(func(i int, tr *goquery.Selection) bool {
		row, err := parsePerformanceRow(tr)
		if err != nil {
			parseErr = fmt.Errorf("row %d: %w", i, err)
			return false
		}
		rows = append(rows, row)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return rows, nil
}

func parsePerformanceRow(tr *goquery.Selection) (models.PerformanceRow, error) {
	var row models.PerformanceRow

	cells := tr.Find("td")
	if cells.Length() < 2 {
		return row, fmt.Errorf("%w: %d cells, need name and benchmark", ErrPerformanceLayout, cells.Length())
	}
	row.SchemeName = strings.TrimSpace(cells.Eq(0).Text())
	row.Benchmark = strings.TrimSpace(cells.Eq(1).Text())

	nav, err := firstContents(tr.Find(vrNAVSelector), 2, "nav")
	if err != nil {
		return row, err
	}
	row.NAVRegular, row.NAVDirect = nav[0], nav[1]

	oneYr, err := firstContents(childCellsWithClass(tr, vrReturn1Y), 2, "1Y")
	if err != nil {
		return row, err
	}
	row.Return1YRegular, row.Return1YDirect = oneYr[0], oneYr[1]

	threeYr, err := firstContents(childCellsWithClass(tr, vrReturn3Y), 2, "3Y")
	if err != nil {
		return row, err
	}
	row.Return3YRegular, row.Return3YDirect = threeYr[0], threeYr[1]

	fiveYr, err := firstContents(childCellsWithClass(tr, vrReturn5Y), 2, "5Y")
	if err != nil {
		return row, err
	}
	row.Return5YRegular, row.Return5YDirect = fiveYr[0], fiveYr[1]

	return row, nil
}

// childCellsWithClass returns the direct td children whose class attribute is exactly class.
func childCellsWithClass(tr *goquery.Selection, class string) *goquery.Selection {
	return tr.ChildrenFiltered("td").FilterFunction(func(_ int, td *goquery.Selection) bool {
		c, ok := td.Attr("class")
		return ok && c == class
	})
}

// firstContents returns the first child node text of the first n cells.
func firstContents(sel *goquery.Selection, n int, column string) ([]string, error) {
	if sel.Length() < n {
		return nil, fmt.Errorf("%w: %d %s cells, need %d", ErrPerformanceLayout, sel.Length(), column, n)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		contents := sel.Eq(i).Contents()
		if contents.Length() == 0 {
			return nil, fmt.Errorf("%w: empty %s cell", ErrPerformanceLayout, column)
		}
		out[i] = strings.TrimSpace(contents.First().Text())
	}
	return out, nil
}
