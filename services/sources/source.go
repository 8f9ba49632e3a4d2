package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrNotRegistered is returned by Registry.Get for an unknown source name.
var ErrNotRegistered = errors.New("source not registered")

// RawRequirement is one entry requirement as published by a source.
type RawRequirement struct {
	RequirementType     string                 `json:"requirement_type" yaml:"requirement_type" validate:"required"`
	TypicalOffer        string                 `json:"typical_offer" yaml:"typical_offer"`
	MinimumOffer        string                 `json:"minimum_offer" yaml:"minimum_offer"`
	SubjectRequirements map[string]interface{} `json:"subject_requirements" yaml:"subject_requirements"`
}

// RawRecord is one course row as published by a source, university fields included.
type RawRecord struct {
	UniversityName    string           `json:"university_name" yaml:"university_name" validate:"required"`
	Location          string           `json:"location" yaml:"location"`
	WebsiteURL        string           `json:"website_url" yaml:"website_url" validate:"omitempty,url"`
	CourseName        string           `json:"course_name" yaml:"course_name" validate:"required"`
	SubjectArea       string           `json:"subject_area" yaml:"subject_area"`
	Qualification     string           `json:"qualification" yaml:"qualification"`
	DurationYears     int              `json:"duration_years" yaml:"duration_years" validate:"gte=0,lte=10"`
	UcasCode          string           `json:"ucas_code" yaml:"ucas_code" validate:"max=16"`
	CourseURL         string           `json:"course_url" yaml:"course_url" validate:"omitempty,url"`
	Year              int              `json:"year" yaml:"year" validate:"omitempty,gte=1900,lte=2100"`
	EntryRequirements []RawRequirement `json:"entry_requirements" yaml:"entry_requirements" validate:"dive"`
}

// Source fetches one batch of raw records per call.
type Source interface {
	// Name is the registry key, also written to the run log.
	Name() string
	FetchBatch(ctx context.Context) ([]RawRecord, error)
}

type envelope struct {
	Records []RawRecord `json:"records" yaml:"records"`
}

// Decode parses a batch document. JSON and YAML are both accepted, either as a
// bare list of records or as an object with a "records" list.
func Decode(data []byte) ([]RawRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []RawRecord{}, nil
	}

	var (
		records []RawRecord
		err     error
	)
	switch trimmed[0] {
	case '[':
		err = json.Unmarshal(trimmed, &records)
	case '{':
		var env envelope
		err = json.Unmarshal(trimmed, &env)
		records = env.Records
	default:
		var node yaml.Node
		if err = yaml.Unmarshal(trimmed, &node); err != nil {
			break
		}
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.MappingNode {
			var env envelope
			err = node.Decode(&env)
			records = env.Records
		} else {
			err = node.Decode(&records)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	if records == nil {
		records = []RawRecord{}
	}
	return records, nil
}
