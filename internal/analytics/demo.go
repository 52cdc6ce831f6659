package analytics

import (
	"context"
	"hash/fnv"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/Bahjat/insight-router/internal/platform/requestid"
)

const demoDays = 7

var demoPaths = []string{"/", "/about", "/contact", "/products", "/blog"}

type valueBand struct{ lo, hi int }

var demoBands = map[string]valueBand{
	"sessions":        {50, 500},
	"totalUsers":      {40, 400},
	"screenPageViews": {100, 800},
}

var defaultBand = valueBand{10, 100}

// DemoReporter fabricates realistic-looking rows when no analytics
// credentials are configured. Output is always seven daily rows ending today
// and is a pure function of the request and the current date.
type DemoReporter struct {
	now    func() time.Time
	logger *slog.Logger
}

// NewDemoReporter returns a DemoReporter using the wall clock.
func NewDemoReporter(logger *slog.Logger) *DemoReporter {
	return &DemoReporter{now: time.Now, logger: logger}
}

// RunReport implements Reporter.
func (d *DemoReporter) RunReport(ctx context.Context, req ReportRequest) ([]ReportRow, error) {
	d.logger.Warn("no analytics credentials, returning demo data",
		"property_id", req.PropertyID,
		requestid.Attr(ctx),
	)

	today := d.now()
	rng := rand.New(rand.NewPCG(seed(req), uint64(today.YearDay())))

	rows := make([]ReportRow, 0, demoDays)
	for i := range demoDays {
		date := today.AddDate(0, 0, -(demoDays - 1 - i)).Format("20060102")

		row := ReportRow{
			DimensionValues: make([]string, len(req.Dimensions)),
			MetricValues:    make([]string, len(req.Metrics)),
		}
		for j, dim := range req.Dimensions {
			switch dim {
			case "date":
				row.DimensionValues[j] = date
			case "pagePath":
				row.DimensionValues[j] = demoPaths[rng.IntN(len(demoPaths))]
			default:
				row.DimensionValues[j] = "demo_value"
			}
		}
		for j, m := range req.Metrics {
			band, ok := demoBands[m]
			if !ok {
				band = defaultBand
			}
			row.MetricValues[j] = strconv.Itoa(band.lo + rng.IntN(band.hi-band.lo+1))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func seed(req ReportRequest) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.Join(req.Metrics, ",")))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strings.Join(req.Dimensions, ",")))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(req.Range.Start + ".." + req.Range.End))
	return h.Sum64()
}
