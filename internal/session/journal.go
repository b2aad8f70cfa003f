package session

import "sync"

// Journal is the append-only log surface shared by every batch a Controller
// runs. It can be read while a batch is still appending to it.
type Journal struct {
	mu    sync.RWMutex
	lines []string
}

func (j *Journal) Append(line string) {
	j.mu.Lock()
	j.lines = append(j.lines, line)
	j.mu.Unlock()
}

func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.lines)
}

// Tail returns a copy of the last n lines, oldest first. n <= 0 returns all.
func (j *Journal) Tail(n int) []string {
	j.mu.RLock()
	defer j.mu.RUnlock()

	start := 0
	if n > 0 && n < len(j.lines) {
		start = len(j.lines) - n
	}
	out := make([]string, len(j.lines)-start)
	copy(out, j.lines[start:])
	return out
}
