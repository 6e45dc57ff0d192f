package experiment

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/poiesic/maniplib/core"
)

// Row is the result of one task.
type Row struct {
	Task
	Record *core.ResultRecord
}

// Report summarizes an experiment.
type Report struct {
	Name string
	Rows []Row
	// Skipped counts tasks whose parameters did not fit their dataset.
	Skipped int
	// Resumed is the number of tasks completed by an earlier invocation.
	Resumed int
	Elapsed time.Duration
}

var reportHeader = []string{"dataset", "strategy", "evaluator", "l", "k", "r", "rep", "found", "value", "replaced", "winners"}

func (r Row) fields() []string {
	m := r.Record.Result
	return []string{
		r.Dataset,
		r.Strategy,
		r.Evaluator,
		strconv.Itoa(r.L),
		strconv.Itoa(r.K),
		strconv.Itoa(r.R),
		strconv.Itoa(r.Rep),
		strconv.FormatBool(m.Found),
		strconv.Itoa(m.Value),
		strconv.Itoa(m.Replaced),
		FormatCandidates(m.Winners),
	}
}

// WriteTable writes the rows as an aligned table followed by a summary line.
func (r *Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(reportHeader, "\t")))
	found := 0
	for _, row := range r.Rows {
		if row.Record.Result.Found {
			found++
		}
		fmt.Fprintln(tw, strings.Join(row.fields(), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%s: %d runs, %d manipulable, %d skipped, %s\n",
		r.Name, len(r.Rows), found, r.Skipped, r.Elapsed.Round(time.Millisecond))
	return err
}

// WriteCSV writes the rows as CSV with a header line.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := cw.Write(row.fields()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatCandidates joins candidate indices with spaces.
func FormatCandidates(cs []core.Candidate) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = strconv.Itoa(int(c))
	}
	return strings.Join(parts, " ")
}
