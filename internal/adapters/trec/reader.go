// Package trec reads and writes TREC run files.
//
// A run line has six whitespace-separated columns:
//
//	<topic> Q0 <docno> <rank> <score> <runname>
package trec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/okian/rbcfuse/internal/domain/model"
)

// MaxLineLength is the longest accepted run line, in bytes.
const MaxLineLength = 1 << 20

const (
	columns       = 6
	initialBuffer = 64 * 1024
	// lines read between context checks
	ctxCheckInterval = 8192
)

// ReadFile parses the run file at path.
func ReadFile(ctx context.Context, path string) (*model.Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open run %s: %w", path, err)
	}
	defer f.Close()
	return Read(ctx, f, path)
}

// Read parses a run from r. path names the source in errors.
//
// The rank column is ignored: an entry's rank is its position among the
// lines of its topic, in input order. Blank lines are skipped.
func Read(ctx context.Context, r io.Reader, path string) (*model.Run, error) {
	run := model.NewRun(path)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, initialBuffer), MaxLineLength)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		if lineNo%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("read run %s: %w", path, err)
			}
		}

		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != columns {
			return nil, fmt.Errorf("%w: %s:%d: expected %d columns, got %d",
				ErrMalformedLine, path, lineNo, columns, len(fields))
		}

		topic, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: topic %q", ErrMalformedLine, path, lineNo, fields[0])
		}
		score, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: score %q", ErrMalformedLine, path, lineNo, fields[4])
		}
		if run.Name == "" {
			run.Name = fields[5]
		}
		run.Append(topic, fields[2], score)
	}

	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("%w: %s:%d: limit is %d bytes", ErrLineTooLong, path, lineNo+1, MaxLineLength)
		}
		return nil, fmt.Errorf("read run %s: %w", path, err)
	}
	return run, nil
}
