package extraction

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spigell/scholara/internal/dates"
	"github.com/spigell/scholara/internal/scholarship"
)

// ErrSchema marks model output that is valid JSON but not a valid record.
var ErrSchema = errors.New("extraction does not match schema")

var (
	dateType    = reflect.TypeOf(scholarship.Date{})
	datePtrType = reflect.TypeOf(&scholarship.Date{})
)

// decode maps the loose JSON object onto the record and checks required fields and enums.
func decode(data map[string]any) (*scholarship.Extracted, error) {
	for _, key := range []string{"name", "provider"} {
		if _, ok := data[key].(string); !ok {
			return nil, fmt.Errorf("%w: %s must be a string", ErrSchema, key)
		}
	}

	out := &scholarship.Extracted{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       dateHook,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	normalize(out)

	if err := check(out); err != nil {
		return nil, err
	}

	return out, nil
}

// dateHook turns loose date strings into scholarship.Date. Empty values leave the pointer nil.
func dateHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}

	raw := strings.TrimSpace(reflect.ValueOf(data).String())
	switch to {
	case datePtrType:
		if raw == "" || strings.EqualFold(raw, "null") {
			return nil, nil
		}
		return data, nil
	case dateType:
		t, ok := dates.Parse(raw)
		if !ok {
			return nil, fmt.Errorf("invalid date %q", raw)
		}
		return scholarship.Date{Time: t}, nil
	}

	return data, nil
}

func normalize(e *scholarship.Extracted) {
	e.Name = strings.TrimSpace(e.Name)
	e.Provider = strings.TrimSpace(e.Provider)

	e.FundingType = scholarship.FundingType(strings.ToLower(strings.TrimSpace(string(e.FundingType))))
	if e.FundingType == "" {
		e.FundingType = scholarship.FundingUnknown
	}

	e.DeadlineType = scholarship.DeadlineType(strings.ToLower(strings.TrimSpace(string(e.DeadlineType))))
	if e.DeadlineType == "" {
		e.DeadlineType = scholarship.DeadlineUnknown
	}

	for i, level := range e.StudyLevels {
		e.StudyLevels[i] = scholarship.StudyLevel(strings.ToUpper(strings.TrimSpace(string(level))))
	}

	if e.OfficialURL != nil && strings.TrimSpace(*e.OfficialURL) == "" {
		e.OfficialURL = nil
	}

	if e.SourceURLs == nil {
		e.SourceURLs = []string{}
	}
	if e.Flags == nil {
		e.Flags = []string{}
	}
	if e.Evidence == nil {
		e.Evidence = []scholarship.Evidence{}
	}
}

func check(e *scholarship.Extracted) error {
	if e.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrSchema)
	}
	if !e.FundingType.Valid() {
		return fmt.Errorf("%w: funding_type %q", ErrSchema, e.FundingType)
	}
	if !e.DeadlineType.Valid() {
		return fmt.Errorf("%w: deadline_type %q", ErrSchema, e.DeadlineType)
	}
	for _, level := range e.StudyLevels {
		if !level.Valid() {
			return fmt.Errorf("%w: study level %q", ErrSchema, level)
		}
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0,1]", ErrSchema, e.Confidence)
	}
	for i, ev := range e.Evidence {
		if strings.TrimSpace(ev.Field) == "" || strings.TrimSpace(ev.Quote) == "" {
			return fmt.Errorf("%w: evidence %d needs field and quote", ErrSchema, i)
		}
	}
	return nil
}
