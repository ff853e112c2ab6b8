package output

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jakopako/loadmore/internal/types"
	"github.com/olekukonko/tablewriter"
)

// CountItems returns the number of elements in html that match selector.
func CountItems(html, selector string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, err
	}
	return doc.Find(selector).Length(), nil
}

// PrintSummary renders status as a table.
func PrintSummary(w io.Writer, status types.RunStatus, withItems bool) error {
	table := tablewriter.NewWriter(w)
	table.Header("Run", "Value")

	rows := [][]string{
		{"url", status.URL},
		{"ticks", strconv.Itoa(status.NrTicks)},
		{"clicks", strconv.Itoa(status.NrClicks)},
		{"errors", strconv.Itoa(status.NrErrors)},
		{"final height", strconv.Itoa(status.FinalHeight)},
		{"stop reason", status.StopReason},
	}
	if withItems {
		rows = append(rows, []string{"items", strconv.Itoa(status.NrItems)})
	}
	if !status.RunStart.IsZero() && !status.RunEnd.IsZero() {
		rows = append(rows, []string{"duration", status.RunEnd.Sub(status.RunStart).Round(100 * time.Millisecond).String()})
	}
	for _, r := range rows {
		if err := table.Append(r); err != nil {
			return err
		}
	}
	return table.Render()
}
