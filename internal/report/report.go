// Package report turns the yearly records of a finished run into derived
// series, CSV rows and a console summary. Ratios whose denominator is zero are
// reported as absent.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mini-census/internal/engine"
)

// Ratios are the derived per-year series of the original population plots.
type Ratios struct {
	Year int `json:"year"`

	// ChildrenPerCouple is a rough fertility estimate. Nil when there are no couples.
	ChildrenPerCouple *float64 `json:"children_per_couple,omitempty"`

	// WomenPerMan is unmarried women per unmarried man. Nil when there are no single men.
	WomenPerMan *float64 `json:"women_per_man,omitempty"`

	// DeceasedPerLiving compares the dead with the living. Nil when nobody is alive.
	DeceasedPerLiving *float64 `json:"deceased_per_living,omitempty"`
}

// Derive computes the ratio series for every record.
func Derive(records []engine.YearRecord) []Ratios {
	out := make([]Ratios, 0, len(records))
	for _, r := range records {
		out = append(out, Ratios{
			Year:              r.Year,
			ChildrenPerCouple: ratio(r.Children, r.Couples),
			WomenPerMan:       ratio(r.SingleWomen, r.SingleMen),
			DeceasedPerLiving: ratio(r.DeceasedCumulative, r.TotalLiving),
		})
	}
	return out
}

func ratio(num, den int) *float64 {
	if den == 0 {
		return nil
	}
	v := float64(num) / float64(den)
	return &v
}

// Header is the CSV column order.
var Header = []string{"year", "total_living", "children", "single_men", "single_women", "deceased", "couples"}

// WriteCSV writes one row per record, preceded by Header.
func WriteCSV(w io.Writer, records []engine.YearRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.Year),
			strconv.Itoa(r.TotalLiving),
			strconv.Itoa(r.Children),
			strconv.Itoa(r.SingleMen),
			strconv.Itoa(r.SingleWomen),
			strconv.Itoa(r.DeceasedCumulative),
			strconv.Itoa(r.Couples),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv year %d: %w", r.Year, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Summary condenses a run.
type Summary struct {
	Years         int `json:"years"`
	FinalLiving   int `json:"final_living"`
	FinalDeceased int `json:"final_deceased"`
	PeakLiving    int `json:"peak_living"`
	PeakYear      int `json:"peak_year"`
	FinalCouples  int `json:"final_couples"`
	TotalCreated  int `json:"total_created"`
}

// Summarize returns the summary of records. An empty run yields a zero Summary.
func Summarize(records []engine.YearRecord) Summary {
	var s Summary
	if len(records) == 0 {
		return s
	}
	s.Years = len(records)
	for _, r := range records {
		if r.TotalLiving > s.PeakLiving {
			s.PeakLiving = r.TotalLiving
			s.PeakYear = r.Year
		}
	}
	last := records[len(records)-1]
	s.FinalLiving = last.TotalLiving
	s.FinalDeceased = last.DeceasedCumulative
	s.FinalCouples = last.Couples
	s.TotalCreated = last.TotalLiving + last.DeceasedCumulative
	return s
}

// WriteSummary prints a sampled table of the run followed by its summary.
// Every step-th year is listed, plus the final year. A step below 1 lists every year.
func WriteSummary(w io.Writer, records []engine.YearRecord, step int) error {
	if step < 1 {
		step = 1
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "year\tliving\tchildren\tmen\twomen\tcouples\tdeceased\tkids/couple\twomen/man\t")

	ratios := Derive(records)
	for i, r := range records {
		if i%step != 0 && i != len(records)-1 {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Year,
			humanize.Comma(int64(r.TotalLiving)),
			humanize.Comma(int64(r.Children)),
			humanize.Comma(int64(r.SingleMen)),
			humanize.Comma(int64(r.SingleWomen)),
			humanize.Comma(int64(r.Couples)),
			humanize.Comma(int64(r.DeceasedCumulative)),
			formatRatio(ratios[i].ChildrenPerCouple),
			formatRatio(ratios[i].WomenPerMan),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := Summarize(records)
	_, err := fmt.Fprintf(w, "\n%s people over %d years; peak %s alive in year %d; %s alive and %s deceased at the end.\n",
		humanize.Comma(int64(s.TotalCreated)), s.Years,
		humanize.Comma(int64(s.PeakLiving)), s.PeakYear,
		humanize.Comma(int64(s.FinalLiving)), humanize.Comma(int64(s.FinalDeceased)),
	)
	return err
}

func formatRatio(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
