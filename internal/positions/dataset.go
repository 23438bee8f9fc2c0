package positions

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Dataset maps document names to their records. Names keep insertion
// order, which is also the order they are written in.
type Dataset struct {
	names   []string
	entries map[string][]Record
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{entries: make(map[string][]Record)}
}

// Set stores the records for name. Setting an existing name replaces its
// records and keeps its position.
func (d *Dataset) Set(name string, records []Record) {
	if d.entries == nil {
		d.entries = make(map[string][]Record)
	}
	if _, ok := d.entries[name]; !ok {
		d.names = append(d.names, name)
	}
	if records == nil {
		records = []Record{}
	}
	d.entries[name] = records
}

// Get returns the records for name and whether the name is present.
func (d *Dataset) Get(name string) ([]Record, bool) {
	recs, ok := d.entries[name]
	return recs, ok
}

// Names returns the document names in order.
func (d *Dataset) Names() []string {
	return append([]string(nil), d.names...)
}

// Len is the number of documents.
func (d *Dataset) Len() int { return len(d.names) }

// Total is the number of records across all documents.
func (d *Dataset) Total() int {
	n := 0
	for _, recs := range d.entries {
		n += len(recs)
	}
	return n
}

// Equal reports whether both datasets hold the same names in the same
// order with equal records.
func (d *Dataset) Equal(o *Dataset) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.Len() != o.Len() {
		return false
	}
	for i, name := range d.names {
		if o.names[i] != name {
			return false
		}
		a, b := d.entries[name], o.entries[name]
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if !a[j].Equal(b[j]) {
				return false
			}
		}
	}
	return true
}

// MarshalJSON writes a JSON object whose keys follow insertion order.
func (d *Dataset) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range d.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(d.entries[name])
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping key order. A repeated key
// overwrites the earlier value in place.
func (d *Dataset) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("position dataset: want object, got %v", tok)
	}
	*d = Dataset{entries: make(map[string][]Record)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("position dataset: want key, got %v", tok)
		}
		var recs []Record
		if err := dec.Decode(&recs); err != nil {
			return fmt.Errorf("position dataset %q: %w", name, err)
		}
		d.Set(name, recs)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
