package runtime

// entry is one slot of a Table: an interned string key (nil if empty or a
// tombstone) plus its value. tombstone distinguishes "never used" (safe to
// stop probing) from "deleted" (must keep probing past it).
type entry struct {
	key       *StringObject
	value     Value
	tombstone bool
}

// Table is an open-addressed hash map from interned strings to Values,
// linear-probed, resized at a 0.75 load factor. Keys are compared by
// pointer identity (interning guarantees byte-equal strings share one
// StringObject), and lookups reuse the key's cached hash.
type Table struct {
	count   int // live entries + tombstones
	entries []entry
}

const tableMaxLoad = 0.75

// NewTable returns an empty table.
func NewTable() *Table { return &Table{} }

// Get looks up key and reports whether it was found.
func (t *Table) Get(key *StringObject) (Value, bool) {
	if len(t.entries) == 0 {
		return Nil, false
	}
	e := t.find(key)
	if e.key == nil {
		return Nil, false
	}
	return e.value, true
}

// Set inserts or overwrites key's value. It returns true if this created a
// brand new key (as opposed to overwriting one already present).
func (t *Table) Set(key *StringObject, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.grow()
	}
	e := t.find(key)
	isNew := e.key == nil
	if isNew && !e.tombstone {
		t.count++
	}
	e.key = key
	e.value = value
	e.tombstone = false
	return isNew
}

// Delete removes key, leaving a tombstone behind so later probes that
// skipped past this slot still find entries beyond it.
func (t *Table) Delete(key *StringObject) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.find(key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.tombstone = true
	return true
}

// FindString looks up a string by its raw bytes and hash rather than by an
// already-interned key; this is how the heap checks "do we already have
// this string content interned" before allocating a new StringObject.
func (t *Table) FindString(chars string, hash uint32) *StringObject {
	if len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	idx := hash & mask
	for {
		e := &t.entries[idx]
		if e.key == nil {
			if !e.tombstone {
				return nil
			}
		} else if e.key.Hash == hash && e.key.Chars == chars {
			return e.key
		}
		idx = (idx + 1) & mask
	}
}

// find locates the slot key belongs in: the first slot with a matching key,
// or else the first empty (non-tombstone) slot seen, remembering the
// earliest tombstone so deletions get reused. find never returns nil.
func (t *Table) find(key *StringObject) *entry {
	mask := uint32(len(t.entries) - 1)
	idx := key.Hash & mask
	var tombstone *entry
	for {
		e := &t.entries[idx]
		if e.key == nil {
			if !e.tombstone {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.key == key {
			return e
		}
		idx = (idx + 1) & mask
	}
}

func (t *Table) grow() {
	newCap := 8
	if len(t.entries) > 0 {
		newCap = len(t.entries) * 2
	}
	old := t.entries
	t.entries = make([]entry, newCap)
	t.count = 0
	for i := range old {
		e := &old[i]
		if e.key == nil {
			continue
		}
		dst := t.find(e.key)
		dst.key = e.key
		dst.value = e.value
		t.count++
	}
}

// Each calls fn for every live entry. Order is unspecified.
func (t *Table) Each(fn func(key *StringObject, value Value)) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil {
			fn(e.key, e.value)
		}
	}
}

// AddAllFrom copies every entry of other into t, overwriting existing keys.
// Used by OP_INHERIT to copy a superclass's methods into a subclass.
func (t *Table) AddAllFrom(other *Table) {
	other.Each(func(key *StringObject, value Value) {
		t.Set(key, value)
	})
}

// RemoveWhite evicts entries whose key is not marked, i.e. about to be
// swept. Used on the heap's string-intern table so that a string with no
// other references doesn't survive forever just because it's interned.
func (t *Table) RemoveWhite() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil && !e.key.Marked() {
			e.key = nil
			e.tombstone = true
		}
	}
}
