package scholarship

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FundingType describes how much of the study cost a scholarship covers.
type FundingType string

const (
	FundingFull    FundingType = "full"
	FundingPartial FundingType = "partial"
	FundingUnknown FundingType = "unknown"
)

// DeadlineType describes how a deadline is set.
type DeadlineType string

const (
	DeadlineFixed   DeadlineType = "fixed"
	DeadlineRolling DeadlineType = "rolling"
	DeadlineUnknown DeadlineType = "unknown"
)

// StudyLevel is a canonical level token.
type StudyLevel string

const (
	LevelHighSchool StudyLevel = "HIGH_SCHOOL"
	LevelBachelors  StudyLevel = "BACHELORS"
	LevelMasters    StudyLevel = "MASTERS"
	LevelPhD        StudyLevel = "PHD"
)

// Flags attached by extraction and validation.
const (
	FlagExpired               = "expired"
	FlagMissingOfficialURL    = "missing_official_url"
	FlagFundingTypeUnverified = "funding_type_unverified"
	FlagMissingEvidencePrefix = "missing_evidence_"
	FlagNeedsReview           = "needs_review"
	FlagUnknownProvider       = "unknown_provider"
	FlagExtractionFailed      = "extraction_failed"
	FlagExtractionError       = "extraction_error"
)

const (
	// UnknownProvider is the sentinel provider for records that could not be extracted.
	UnknownProvider = "Unknown"
	// UnknownNamePrefix starts the name of a record whose real name is not known.
	UnknownNamePrefix = "Unknown"
)

// Valid reports whether f is a known funding type.
func (f FundingType) Valid() bool {
	switch f {
	case FundingFull, FundingPartial, FundingUnknown:
		return true
	}
	return false
}

// Valid reports whether d is a known deadline type.
func (d DeadlineType) Valid() bool {
	switch d {
	case DeadlineFixed, DeadlineRolling, DeadlineUnknown:
		return true
	}
	return false
}

// Valid reports whether l is a known study level.
func (l StudyLevel) Valid() bool {
	switch l {
	case LevelHighSchool, LevelBachelors, LevelMasters, LevelPhD:
		return true
	}
	return false
}

// Date is a calendar date encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format("2006-01-02"))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// Evidence is a verbatim quote from a source page backing one extracted field.
type Evidence struct {
	Field     string `json:"field" mapstructure:"field"`
	SourceURL string `json:"source_url" mapstructure:"source_url"`
	Quote     string `json:"quote" mapstructure:"quote"`
	CharStart *int   `json:"char_start,omitempty" mapstructure:"char_start"`
	CharEnd   *int   `json:"char_end,omitempty" mapstructure:"char_end"`
}

// Eligibility is the structured eligibility section. An empty allow-list means open to all.
type Eligibility struct {
	NationalitiesAllowed []string `json:"nationalities_allowed" mapstructure:"nationalities_allowed"`
	AgeMin               *int     `json:"age_min,omitempty" mapstructure:"age_min"`
	AgeMax               *int     `json:"age_max,omitempty" mapstructure:"age_max"`
	GPAMin               *float64 `json:"gpa_min,omitempty" mapstructure:"gpa_min"`
	LanguageRequirements []string `json:"language_requirements" mapstructure:"language_requirements"`
}

// Benefits is the structured benefits section.
type Benefits struct {
	Tuition *string  `json:"tuition,omitempty" mapstructure:"tuition"`
	Stipend *string  `json:"stipend,omitempty" mapstructure:"stipend"`
	Travel  *string  `json:"travel,omitempty" mapstructure:"travel"`
	Other   []string `json:"other" mapstructure:"other"`
}

// Extracted is an unverified scholarship produced from page text. Validation
// updates Flags and Confidence in place; nothing else changes after extraction.
type Extracted struct {
	Name              string       `json:"name" mapstructure:"name"`
	Provider          string       `json:"provider" mapstructure:"provider"`
	OfficialURL       *string      `json:"official_url" mapstructure:"official_url"`
	SourceURLs        []string     `json:"source_urls" mapstructure:"source_urls"`
	Deadline          *Date        `json:"deadline" mapstructure:"deadline"`
	DeadlineType      DeadlineType `json:"deadline_type" mapstructure:"deadline_type"`
	FundingType       FundingType  `json:"funding_type" mapstructure:"funding_type"`
	StudyLevels       []StudyLevel `json:"study_levels" mapstructure:"study_levels"`
	FieldOfStudy      *string      `json:"field_of_study" mapstructure:"field_of_study"`
	Country           *string      `json:"country" mapstructure:"country"`
	Duration          *string      `json:"duration" mapstructure:"duration"`
	Value             *string      `json:"value" mapstructure:"value"`
	Eligibility       Eligibility  `json:"eligibility" mapstructure:"eligibility"`
	Benefits          Benefits     `json:"benefits" mapstructure:"benefits"`
	RequiredDocuments []string     `json:"required_documents" mapstructure:"required_documents"`
	Evidence          []Evidence   `json:"evidence" mapstructure:"evidence"`
	Confidence        float64      `json:"confidence" mapstructure:"confidence"`
	Flags             []string     `json:"flags" mapstructure:"flags"`
	Description       *string      `json:"description" mapstructure:"description"`
}

// NewPlaceholder builds the low-confidence record returned when extraction fails.
func NewPlaceholder(name, sourceURL string, confidence float64, flags ...string) *Extracted {
	return &Extracted{
		Name:         name,
		Provider:     UnknownProvider,
		SourceURLs:   []string{sourceURL},
		DeadlineType: DeadlineUnknown,
		FundingType:  FundingUnknown,
		Confidence:   confidence,
		Flags:        append([]string(nil), flags...),
	}
}

// HasFlag reports whether flag is already set.
func (e *Extracted) HasFlag(flag string) bool {
	for _, f := range e.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// AddFlag appends flag unless present and reports whether it was added.
func (e *Extracted) AddFlag(flag string) bool {
	if e.HasFlag(flag) {
		return false
	}
	e.Flags = append(e.Flags, flag)
	return true
}

// OfficialURLValue returns the official URL or an empty string.
func (e *Extracted) OfficialURLValue() string {
	if e.OfficialURL == nil {
		return ""
	}
	return strings.TrimSpace(*e.OfficialURL)
}

// HasEvidenceFor reports whether any evidence span cites one of the fields.
func (e *Extracted) HasEvidenceFor(fields ...string) bool {
	for _, ev := range e.Evidence {
		for _, f := range fields {
			if ev.Field == f {
				return true
			}
		}
	}
	return false
}

// EnsureSourceURL appends url to SourceURLs when missing.
func (e *Extracted) EnsureSourceURL(url string) {
	for _, u := range e.SourceURLs {
		if u == url {
			return
		}
	}
	e.SourceURLs = append(e.SourceURLs, url)
}
