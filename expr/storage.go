package expr

// ProgramType records where a stored program is used.
type ProgramType int

const (
	ProgramSimple ProgramType = iota
	ProgramAttribute
	ProgramOption
	ProgramCondition
	ProgramIterator
	ProgramEvent
)

// ProgramMeta describes a stored program.
type ProgramMeta struct {
	Program *Program
	Type    ProgramType
	// Name is the attribute or option the program was found in, if any.
	Name string
	// Synthetic marks programs built by the compiler rather than written
	// by the template author.
	Synthetic bool
	// Index is assigned by Storage.Set and never changes afterwards.
	Index int
}

// Storage is an ordered set of programs with stable indices. Removed
// entries leave a tombstone so later indices keep their value, and
// indices are never reused.
type Storage struct {
	entries []*ProgramMeta
	index   map[*Program]*ProgramMeta
	live    int
}

// NewStorage returns an empty Storage.
func NewStorage() *Storage {
	return &Storage{index: make(map[*Program]*ProgramMeta)}
}

// Set stores meta and returns the stored entry. When the program is
// already stored the existing entry is returned unchanged.
func (s *Storage) Set(meta *ProgramMeta) *ProgramMeta {
	if existing, ok := s.index[meta.Program]; ok {
		return existing
	}
	meta.Index = len(s.entries)
	s.entries = append(s.entries, meta)
	s.index[meta.Program] = meta
	s.live++
	return meta
}

// Get returns the entry of p, or nil.
func (s *Storage) Get(p *Program) *ProgramMeta {
	return s.index[p]
}

// FindIndex returns the index of p, or -1 when it is not stored.
func (s *Storage) FindIndex(p *Program) int {
	if meta, ok := s.index[p]; ok {
		return meta.Index
	}
	return -1
}

// Remove deletes p. Indices of the remaining programs are unchanged.
func (s *Storage) Remove(p *Program) {
	meta, ok := s.index[p]
	if !ok {
		return
	}
	delete(s.index, p)
	s.entries[meta.Index] = nil
	s.live--
}

// Len returns the number of stored programs.
func (s *Storage) Len() int { return s.live }

// All returns the stored entries in index order.
func (s *Storage) All() []*ProgramMeta {
	out := make([]*ProgramMeta, 0, s.live)
	for _, m := range s.entries {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
