package pipeline

import (
	"encoding/csv"
	"os"
	"strconv"
	"sync"
)

// auditLog appends low-confidence match lines to the append-only CSV file:
// original name, parsed title, provider title, score.
type auditLog struct {
	mu   sync.Mutex
	path string
}

func (a *auditLog) append(original, parsed, provider string, score float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	file, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{original, parsed, provider, strconv.FormatFloat(score, 'f', 3, 64)}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
