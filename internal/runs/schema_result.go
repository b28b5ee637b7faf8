package runs

import "encoding/json"

// ResultJSON is the worker-produced output payload. Set exactly once, when
// a run transitions to succeeded; validated here on every read and write
// boundary.
type ResultJSON struct {
	Summary      ResultSummary    `json:"summary"`
	Scores       []GroupScore     `json:"scores,omitempty" validate:"omitempty,dive"`
	Model        *ModelInfo       `json:"model,omitempty"`
	FeaturesUsed []string         `json:"featuresUsed,omitempty"`
	QC           *ResultQC        `json:"qc,omitempty"`
	Artifacts    *ResultArtifacts `json:"artifacts,omitempty"`
}

// ResultSummary is the headline classification outcome.
type ResultSummary struct {
	PredictedGroup string   `json:"predictedGroup" validate:"required"`
	PredictedLabel string   `json:"predictedLabel,omitempty"`
	Probability    *float64 `json:"probability,omitempty" validate:"omitempty,gte=0,lte=1"`
	Decision       string   `json:"decision,omitempty" validate:"omitempty,oneof=likely uncertain unlikely"`
}

// GroupScore is one per-group score in the order the classifier produced
// them. Scores may be unnormalized distances or log-likelihoods, so only
// finiteness is enforced.
type GroupScore struct {
	Group string  `json:"group" validate:"required"`
	Label string  `json:"label,omitempty"`
	Score float64 `json:"score" validate:"finite"`
}

// ModelInfo is optional metadata about the model the worker ran.
type ModelInfo struct {
	ClassificationMethod string `json:"classificationMethod,omitempty"`
	Stepwise             string `json:"stepwise,omitempty"`
	CompareGroupCount    string `json:"compareGroupCount,omitempty"`
	AlgorithmVersion     string `json:"algorithmVersion,omitempty"`
	ModelVersion         string `json:"modelVersion,omitempty"`
}

// ResultQC carries worker-side quality-control findings.
type ResultQC struct {
	MissingFields []string `json:"missingFields,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
	IsValidForRun *bool    `json:"isValidForRun,omitempty"`
}

// ResultArtifacts points at files the worker wrote alongside the result.
type ResultArtifacts struct {
	PlotPaths     []string `json:"plotPaths,omitempty"`
	RawOutputPath string   `json:"rawOutputPath,omitempty"`
}

// ParseResult validates an untrusted byte slice into a canonical result.
// The returned error is always a *ValidationError for schema failures.
func ParseResult(raw []byte) (ResultJSON, error) {
	var result ResultJSON
	if err := json.Unmarshal(raw, &result); err != nil {
		return ResultJSON{}, newValidationError(fieldErrorFromJSON("resultJson", err))
	}
	if err := ValidateResult(result); err != nil {
		return ResultJSON{}, err
	}
	return result, nil
}

// ValidateResult checks a canonical result against the schema, reporting
// every offending field. It is pure.
func ValidateResult(result ResultJSON) error {
	if err := validate.Struct(result); err != nil {
		return validationErrorFrom("resultJson", err)
	}
	return nil
}
