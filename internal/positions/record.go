// Package positions defines where logos were found in a document and
// persists those findings between a scan and later replacement runs.
package positions

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/KevinLongeway/Safe2Day/internal/ooxml"
)

// Record is one discovered logo location.
//
// RunIndex is informational: replacement rewrites the whole paragraph.
type Record struct {
	Region         ooxml.Region     `json:"type"`
	SectionIndex   int              `json:"section_index"`
	ParagraphIndex int              `json:"para_index"`
	RunIndex       int              `json:"run_index"`
	Alignment      *ooxml.Alignment `json:"alignment"`
}

// String identifies the record's coordinates in logs.
func (r Record) String() string {
	return fmt.Sprintf("%s section %d paragraph %d run %d", r.Region, r.SectionIndex, r.ParagraphIndex, r.RunIndex)
}

// Equal compares two records field by field, including alignment presence.
func (r Record) Equal(o Record) bool {
	if r.Region != o.Region || r.SectionIndex != o.SectionIndex ||
		r.ParagraphIndex != o.ParagraphIndex || r.RunIndex != o.RunIndex {
		return false
	}
	if (r.Alignment == nil) != (o.Alignment == nil) {
		return false
	}
	return r.Alignment == nil || *r.Alignment == *o.Alignment
}

// legacyAlignments maps the integer alignment codes written by the earlier
// python-docx based tooling onto w:jc keywords.
var legacyAlignments = map[int]ooxml.Alignment{
	0: ooxml.AlignLeft,
	1: ooxml.AlignCenter,
	2: ooxml.AlignRight,
	3: ooxml.AlignBoth,
	4: ooxml.AlignDistribute,
	5: ooxml.AlignMediumKashida,
	7: ooxml.AlignHighKashida,
	8: ooxml.AlignLowKashida,
	9: ooxml.AlignThaiDistribute,
}

// UnmarshalJSON accepts alignment as a keyword, a legacy integer code or null.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		Region         ooxml.Region    `json:"type"`
		SectionIndex   int             `json:"section_index"`
		ParagraphIndex int             `json:"para_index"`
		RunIndex       int             `json:"run_index"`
		Alignment      json.RawMessage `json:"alignment"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	align, err := decodeAlignment(raw.Alignment)
	if err != nil {
		return err
	}
	*r = Record{
		Region:         raw.Region,
		SectionIndex:   raw.SectionIndex,
		ParagraphIndex: raw.ParagraphIndex,
		RunIndex:       raw.RunIndex,
		Alignment:      align,
	}
	return nil
}

func decodeAlignment(raw json.RawMessage) (*ooxml.Alignment, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil, nil
		}
		a := ooxml.Alignment(s)
		return &a, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("alignment %s: want keyword, integer or null", raw)
	}
	a, ok := legacyAlignments[n]
	if !ok {
		return nil, fmt.Errorf("alignment code %d unknown", n)
	}
	return &a, nil
}
