package trec

import (
	"bufio"
	"fmt"
	"io"

	"github.com/okian/rbcfuse/internal/domain/model"
)

// Writer formats fused rankings as TREC run lines.
type Writer struct {
	w     *bufio.Writer
	runID string
	lines int
}

// NewWriter returns a Writer tagging every line with runID.
func NewWriter(w io.Writer, runID string) *Writer {
	return &Writer{w: bufio.NewWriter(w), runID: runID}
}

// Write emits one line per result. Call Flush when done.
func (w *Writer) Write(results []model.Result) error {
	for _, r := range results {
		if _, err := fmt.Fprintf(w.w, "%d Q0 %s %d %.4f %s\n", r.Topic, r.DocID, r.Rank, r.Score, w.runID); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		w.lines++
	}
	return nil
}

// Flush writes any buffered lines to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("flush results: %w", err)
	}
	return nil
}

// Lines is the number of lines written so far.
func (w *Writer) Lines() int { return w.lines }

// WriteAll writes rankings in order and flushes.
func WriteAll(out io.Writer, runID string, rankings [][]model.Result) (int, error) {
	w := NewWriter(out, runID)
	for _, res := range rankings {
		if err := w.Write(res); err != nil {
			return w.Lines(), err
		}
	}
	return w.Lines(), w.Flush()
}
