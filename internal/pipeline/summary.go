package pipeline

import "time"

// DocumentResult is the outcome for one source document.
type DocumentResult struct {
	Name       string   `json:"name"`
	Status     Status   `json:"status"`
	Phase      string   `json:"phase"`
	CopyPath   string   `json:"copy_path,omitempty"`
	PDFPath    string   `json:"pdf_path,omitempty"`
	SourceHash string   `json:"source_hash,omitempty"`
	Records    int      `json:"records"`
	Replaced   int      `json:"replaced"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors"`
}

// OK reports whether the document was saved and rendered.
func (r DocumentResult) OK() bool {
	return r.Status == StatusCompleted || r.Status == StatusPartial
}

// Summary reports a whole run.
type Summary struct {
	Logo       string           `json:"logo"`
	Found      int              `json:"found"`
	Processed  int              `json:"processed"`
	Replaced   int              `json:"replaced"`
	Skipped    int              `json:"skipped"`
	Failed     int              `json:"failed"`
	CopyDir    string           `json:"copy_dir"`
	PDFDir     string           `json:"pdf_dir"`
	Documents  []DocumentResult `json:"documents"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}

func (s *Summary) add(r DocumentResult) {
	if r.Errors == nil {
		r.Errors = []string{}
	}
	s.Documents = append(s.Documents, r)
	s.Replaced += r.Replaced
	s.Skipped += r.Skipped
	if r.OK() {
		s.Processed++
	} else {
		s.Failed++
	}
}

func (s *Summary) finish() {
	if s.Documents == nil {
		s.Documents = []DocumentResult{}
	}
	s.FinishedAt = time.Now()
}

// Duration is how long the run took.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
