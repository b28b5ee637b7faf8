package runs

import "encoding/json"

// The pre-dataset-binding payload generation used meta/parameters/
// measurements instead of metadata/comparison/isotopeInputs. NormalizeInput
// translates that shape at the boundary so the rest of the system only ever
// sees the canonical schema. Values with no canonical equivalent (e.g. the
// old "svm" classifier) are passed through untranslated and rejected by
// validation.

type legacyInput struct {
	Meta struct {
		CaseNumber          string `json:"caseNumber"`
		AnalystName         string `json:"analystName"`
		TargetElementsLabel string `json:"targetElementsLabel"`
	} `json:"meta"`
	Parameters struct {
		CompareGroupCount    string   `json:"compareGroupCount"`
		ClassificationMethod string   `json:"classificationMethod"`
		Stepwise             string   `json:"stepwise"`
		Populations          []string `json:"populations"`
	} `json:"parameters"`
	Measurements struct {
		Collagen struct {
			D13C Measurement `json:"d13C"`
			D15N Measurement `json:"d15N"`
			D34S Measurement `json:"d34S"`
		} `json:"collagen"`
		Apatite struct {
			D13C Measurement `json:"d13C"`
			D18O Measurement `json:"d18O"`
		} `json:"apatite"`
		Enamel struct {
			D13C Measurement `json:"d13C"`
			D18O Measurement `json:"d18O"`
		} `json:"enamel"`
	} `json:"measurements"`
}

var legacyGroupCounts = map[string]string{
	"2":     "two",
	"3plus": "more2",
}

var legacyClassifiers = map[string]string{
	"lda":      "lda",
	"logistic": "logit",
}

var legacyPopulations = map[string]string{
	"asia":           "Asian",
	"japan":          "Japan",
	"northeast_asia": "NEA",
	"southeast_asia": "SEA",
	"ubc_vancouver":  "UBC",
	"america":        "US",
}

// legacyDefaultReferenceSample fills the sample id the old payloads
// implicitly targeted; they predate selectable reference data.
const legacyDefaultReferenceSample = "png-modern-2026-01"

// NormalizeInput converts a legacy payload into the canonical shape, and
// returns canonical payloads unchanged. It never validates; that stays with
// ParseInput.
func NormalizeInput(raw json.RawMessage) json.RawMessage {
	if !isLegacyInput(raw) {
		return raw
	}

	var legacy legacyInput
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return raw
	}

	inputs := AnalysisInputs{
		Metadata: MetadataFields{
			CaseNumber:     legacy.Meta.CaseNumber,
			AnalystName:    legacy.Meta.AnalystName,
			ElementSampled: legacy.Meta.TargetElementsLabel,
		},
		Comparison: ComparisonParameters{
			ReferenceSample: legacyDefaultReferenceSample,
			NumberOfGroups:  translate(legacyGroupCounts, legacy.Parameters.CompareGroupCount),
			Classifier:      translate(legacyClassifiers, legacy.Parameters.ClassificationMethod),
			Stepwise:        legacy.Parameters.Stepwise,
			Populations:     translateAll(legacyPopulations, legacy.Parameters.Populations),
		},
		IsotopeInputs: IsotopeInputs{
			Collagen: CollagenMeasurements{
				Col13C: legacy.Measurements.Collagen.D13C,
				Col15N: legacy.Measurements.Collagen.D15N,
				Col34S: legacy.Measurements.Collagen.D34S,
			},
			Apatite: ApatiteMeasurements{
				A13C: legacy.Measurements.Apatite.D13C,
				A18O: legacy.Measurements.Apatite.D18O,
			},
			Enamel: EnamelMeasurements{
				E13C: legacy.Measurements.Enamel.D13C,
				E18O: legacy.Measurements.Enamel.D18O,
			},
		},
	}

	normalized, err := json.Marshal(inputs)
	if err != nil {
		return raw
	}
	return normalized
}

func isLegacyInput(raw json.RawMessage) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	if _, ok := probe["comparison"]; ok {
		return false
	}
	_, hasParameters := probe["parameters"]
	_, hasMeasurements := probe["measurements"]
	return hasParameters || hasMeasurements
}

func translate(mapping map[string]string, value string) string {
	if mapped, ok := mapping[value]; ok {
		return mapped
	}
	return value
}

func translateAll(mapping map[string]string, values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, translate(mapping, v))
	}
	return out
}
