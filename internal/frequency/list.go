package frequency

// ListTable keeps one record per distinct word in first-sighting order and
// scans it linearly on every insert and lookup.
type ListTable struct {
	words []Entry
	total int
}

func NewListTable() *ListTable {
	return &ListTable{}
}

func (l *ListTable) Record(word string) {
	if word == Sentinel {
		return
	}
	l.total++
	if i := l.index(word); i >= 0 {
		l.words[i].Count++
		return
	}
	l.words = append(l.words, Entry{Word: word, Count: 1})
}

func (l *ListTable) Lookup(word string) (int, bool) {
	if i := l.index(word); i >= 0 {
		return l.words[i].Count, true
	}
	return 0, false
}

func (l *ListTable) Len() int { return len(l.words) }

func (l *ListTable) Total() int { return l.total }

// Entries returns a copy in first-sighting order.
func (l *ListTable) Entries() []Entry {
	out := make([]Entry, len(l.words))
	copy(out, l.words)
	return out
}

func (l *ListTable) index(word string) int {
	for i := range l.words {
		if l.words[i].Word == word {
			return i
		}
	}
	return -1
}
