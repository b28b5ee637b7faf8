package runs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// AnalysisInputs is the canonical input payload bound to a run at creation.
// It is immutable once stored; every read re-validates it against this
// schema.
type AnalysisInputs struct {
	Metadata      MetadataFields       `json:"metadata"`
	Comparison    ComparisonParameters `json:"comparison"`
	IsotopeInputs IsotopeInputs        `json:"isotopeInputs"`
}

// MetadataFields carries free-text case metadata. All fields are required
// non-empty strings after trimming.
type MetadataFields struct {
	CaseNumber     string `json:"caseNumber" validate:"notblank"`
	AnalystName    string `json:"analystName" validate:"notblank"`
	ElementSampled string `json:"elementSampled" validate:"notblank"`
}

// ComparisonParameters selects the reference data and the statistical setup
// for the external classification engine.
type ComparisonParameters struct {
	ReferenceSample string   `json:"referenceSample" validate:"refsample"`
	NumberOfGroups  string   `json:"numberOfGroups" validate:"oneof=two more2"`
	Classifier      string   `json:"classifier" validate:"oneof=lda logit rf"`
	Stepwise        string   `json:"stepwise" validate:"oneof=none forward backward"`
	Populations     []string `json:"populations" validate:"unique,dive,oneof=Asian Japan NEA SEA UBC US"`
}

// IsotopeInputs groups isotope-ratio measurements by sampled material.
type IsotopeInputs struct {
	Collagen CollagenMeasurements `json:"collagen"`
	Apatite  ApatiteMeasurements  `json:"apatite"`
	Enamel   EnamelMeasurements   `json:"enamel"`
}

type CollagenMeasurements struct {
	Col13C Measurement `json:"col13c" validate:"measurement"`
	Col15N Measurement `json:"col15n" validate:"measurement"`
	Col34S Measurement `json:"col34s" validate:"measurement"`
}

type ApatiteMeasurements struct {
	A13C Measurement `json:"a13c" validate:"measurement"`
	A18O Measurement `json:"a18o" validate:"measurement"`
}

type EnamelMeasurements struct {
	E13C Measurement `json:"e13c" validate:"measurement"`
	E18O Measurement `json:"e18o" validate:"measurement"`
}

// Measurement is a single isotope ratio: a finite number, or explicitly
// null meaning "not measured". Unmarshaling is tolerant so one malformed
// value does not mask the others; the validator reports every bad field.
type Measurement struct {
	Value   *float64
	invalid bool
	raw     json.RawMessage
}

var jsonNull = []byte("null")

// Num returns a measured value. Convenience for building inputs in code.
func Num(v float64) Measurement {
	return Measurement{Value: &v}
}

func (m *Measurement) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		m.Value = nil
		m.invalid = false
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		m.Value = nil
		m.invalid = true
		m.raw = append(json.RawMessage(nil), data...)
		return nil
	}
	m.Value = &v
	m.invalid = false
	m.raw = nil
	return nil
}

// MarshalJSON round-trips even invalid raw values so the compat translator
// can hand them to the canonical schema for a proper field error.
func (m Measurement) MarshalJSON() ([]byte, error) {
	if m.invalid {
		if len(m.raw) > 0 {
			return m.raw, nil
		}
		return nil, fmt.Errorf("cannot marshal invalid measurement")
	}
	if m.Value == nil {
		return jsonNull, nil
	}
	return json.Marshal(*m.Value)
}

// ParseInput validates an untrusted byte slice into canonical inputs. The
// returned error is always a *ValidationError for client-caused failures.
func ParseInput(raw []byte) (AnalysisInputs, error) {
	var inputs AnalysisInputs
	if err := json.Unmarshal(raw, &inputs); err != nil {
		return AnalysisInputs{}, newValidationError(fieldErrorFromJSON("inputJson", err))
	}
	if err := ValidateInputs(inputs); err != nil {
		return AnalysisInputs{}, err
	}
	return inputs, nil
}

// ValidateInputs checks canonical inputs against the schema, reporting
// every offending field. It is pure.
func ValidateInputs(inputs AnalysisInputs) error {
	if err := validate.Struct(inputs); err != nil {
		return validationErrorFrom("inputJson", err)
	}
	return nil
}

func fieldErrorFromJSON(root string, err error) FieldError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return FieldError{
			Path:    root + "." + typeErr.Field,
			Message: fmt.Sprintf("must be of type %s", typeErr.Type),
		}
	}
	return FieldError{Path: root, Message: "must be a JSON object"}
}
