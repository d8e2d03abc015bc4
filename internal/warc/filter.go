package warc

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Predicate decides whether a response record should be retained. It receives
// the record's target URI and HTTP payload body.
type Predicate func(targetURI string, payload []byte) bool

// FilterResult summarizes one filter run.
type FilterResult struct {
	// Matched is the number of distinct target URIs the predicate accepted.
	Matched int
	// Total is the number of content-bearing records examined in pass 1.
	Total int
	// OutputWritten reports whether an output container was produced.
	// No container is created when nothing matched.
	OutputWritten bool
}

// Filter streams the container at inputPath through pred and writes the
// matching records, byte-identical to the originals, into a new container at
// outputPath.
//
// Two passes are required: containers are write-once-sequential, and predicate
// evaluation may need full payload inspection that must not interleave with
// output writing. Pass 1 collects the set of matching target URIs; pass 2
// re-streams the input and copies each selected record exactly once, stopping
// early once every selected URI has been written. Duplicate URIs therefore
// yield a single retained record.
//
// On any error no partial output container is left behind.
func Filter(inputPath, outputPath string, pred Predicate) (FilterResult, error) {
	res := FilterResult{}

	// Pass 1: selection.
	selected := make(map[string]struct{})

	r, err := Open(inputPath)
	if err != nil {
		return res, err
	}
	for {
		rec, err := r.NextResponse()
		if err == io.EOF {
			break
		}
		if err != nil {
			r.Close() //nolint:errcheck
			return res, eris.Wrap(err, "warc: filter pass 1")
		}
		res.Total++
		if res.Total%5000 == 0 {
			zap.L().Info("filter pass 1 progress",
				zap.String("input", inputPath),
				zap.Int("records", res.Total),
				zap.Int("matched", len(selected)),
			)
		}
		if pred(rec.TargetURI, rec.Body()) {
			selected[rec.TargetURI] = struct{}{}
		}
	}
	if err := r.Close(); err != nil {
		return res, eris.Wrap(err, "warc: close input after pass 1")
	}

	res.Matched = len(selected)
	if res.Matched == 0 {
		return res, nil
	}

	// Pass 2: materialization.
	if err := materialize(inputPath, outputPath, selected); err != nil {
		os.Remove(outputPath)
		return FilterResult{Total: res.Total}, err
	}
	res.OutputWritten = true
	return res, nil
}

// materialize copies each record whose URI is in selected into a new
// container, consuming the working set to guard against duplicate URIs and
// stopping once it is empty.
func materialize(inputPath, outputPath string, selected map[string]struct{}) error {
	remaining := make(map[string]struct{}, len(selected))
	for uri := range selected {
		remaining[uri] = struct{}{}
	}

	r, err := Open(inputPath)
	if err != nil {
		return err
	}
	defer r.Close() //nolint:errcheck

	w, err := Create(outputPath)
	if err != nil {
		return err
	}

	for len(remaining) > 0 {
		rec, err := r.NextResponse()
		if err == io.EOF {
			break
		}
		if err != nil {
			w.Close() //nolint:errcheck
			return eris.Wrap(err, "warc: filter pass 2")
		}
		if _, ok := remaining[rec.TargetURI]; !ok {
			continue
		}
		if err := w.WriteRecord(rec); err != nil {
			w.Close() //nolint:errcheck
			return err
		}
		delete(remaining, rec.TargetURI)
	}

	if err := w.Close(); err != nil {
		return eris.Wrap(err, "warc: close output container")
	}
	return nil
}
