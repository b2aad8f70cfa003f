package collect

import (
	"errors"
	"fmt"
	"os"

	"imgbatch/internal/processor"
)

// SourceList is the ordered, de-duplicated set of selected source images.
// It is not safe for concurrent use; session.Controller guards it.
type SourceList struct {
	items []processor.SourceItem
	seen  map[string]struct{}
}

func NewSourceList() *SourceList {
	return &SourceList{seen: make(map[string]struct{})}
}

// Add appends paths that are not already present and returns how many were
// added. Paths that cannot be stat'ed are skipped and reported together.
func (l *SourceList) Add(paths ...string) (int, error) {
	if l.seen == nil {
		l.seen = make(map[string]struct{})
	}

	added := 0
	var errs []error
	for _, p := range paths {
		if _, ok := l.seen[p]; ok {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("add %s: %w", p, err))
			continue
		}
		if info.IsDir() {
			errs = append(errs, fmt.Errorf("add %s: is a directory", p))
			continue
		}
		l.seen[p] = struct{}{}
		l.items = append(l.items, processor.SourceItem{Path: p, SizeBytes: info.Size()})
		added++
	}

	return added, errors.Join(errs...)
}

func (l *SourceList) Clear() {
	l.items = nil
	l.seen = make(map[string]struct{})
}

func (l *SourceList) Len() int {
	return len(l.items)
}

// Items returns a copy of the list in insertion order.
func (l *SourceList) Items() []processor.SourceItem {
	out := make([]processor.SourceItem, len(l.items))
	copy(out, l.items)
	return out
}
