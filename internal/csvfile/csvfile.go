// Package csvfile writes history entries as CSV.
package csvfile

import (
	"encoding/csv"
	"iter"
	"os"

	"github.com/ahmethakanbesel/history-scraper/internal/apperror"
	"github.com/ahmethakanbesel/history-scraper/internal/history"
)

// Write creates or truncates path, writes the header line and then one line
// per entry. It returns the number of entries written.
func Write(path string, entries iter.Seq[history.Entry]) (n int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, apperror.Wrap(apperror.IO, "create "+path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = apperror.Wrap(apperror.IO, "close "+path, cerr)
		}
	}()

	w := csv.NewWriter(f)

	if err := w.Write(history.Header); err != nil {
		return 0, apperror.Wrap(apperror.IO, "write "+path, err)
	}
	for e := range entries {
		if err := w.Write(e.Fields()); err != nil {
			return n, apperror.Wrap(apperror.IO, "write "+path, err)
		}
		n++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return n, apperror.Wrap(apperror.IO, "write "+path, err)
	}
	return n, nil
}
