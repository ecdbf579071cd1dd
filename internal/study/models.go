package study

import (
	"encoding/json"
	"fmt"
)

// Study type discriminators.
const (
	TypeUser      = "USER"
	TypeHeuristic = "HEURISTIC"
)

// Document is a schemaless study record as stored, with its id merged into
// the data fields. The aggregation resolver works on documents so per-user
// annotations with arbitrary fields can be overlaid at read time.
type Document = map[string]any

// CalibrationSettings holds eye-tracker calibration parameters for user
// studies. It is attached to Study by composition; there is no study subtype.
type CalibrationSettings struct {
	PointCount     int     `json:"pointCount,omitempty"`
	SampleDuration int     `json:"sampleDuration,omitempty"`
	Tolerance      float64 `json:"tolerance,omitempty"`
	Enabled        bool    `json:"enabled"`
}

// Study is the typed study record used by the CRUD surface.
type Study struct {
	ID                string               `json:"id"`
	Title             string               `json:"title"`
	Description       string               `json:"description,omitempty"`
	TestType          string               `json:"testType,omitempty"`
	Status            string               `json:"status,omitempty"`
	AdminID           string               `json:"adminId,omitempty"`
	Cooperators       []Cooperator         `json:"cooperators,omitempty"`
	CalibrationConfig *CalibrationSettings `json:"calibrationConfig,omitempty"`
}

// Cooperator is a secondary user granted access to a study.
type Cooperator struct {
	UserDocID string `json:"userDocId"`
	Email     string `json:"email,omitempty"`
}

// Document renders the study as a schemaless document, id included.
func (s Study) Document() (Document, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode study %s: %w", s.ID, err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode study %s: %w", s.ID, err)
	}
	return doc, nil
}

// FromDocument decodes a stored document into the typed record.
func FromDocument(doc Document) (Study, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return Study{}, fmt.Errorf("encode study document: %w", err)
	}
	var s Study
	if err := json.Unmarshal(raw, &s); err != nil {
		return Study{}, fmt.Errorf("decode study document: %w", err)
	}
	return s, nil
}
