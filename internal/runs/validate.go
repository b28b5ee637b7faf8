package runs

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their json names so validation paths match the wire
	// format.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	must(v.RegisterValidation("notblank", validateNotBlank))
	must(v.RegisterValidation("measurement", validateMeasurement))
	must(v.RegisterValidation("finite", validateFinite))
	must(v.RegisterValidation("refsample", validateReferenceSample))

	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateMeasurement(fl validator.FieldLevel) bool {
	m, ok := fl.Field().Interface().(Measurement)
	if !ok {
		return false
	}
	if m.invalid {
		return false
	}
	if m.Value == nil {
		return true
	}
	return !math.IsNaN(*m.Value) && !math.IsInf(*m.Value, 0)
}

func validateFinite(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validateReferenceSample(fl validator.FieldLevel) bool {
	_, ok := datasetLookup[fl.Field().String()]
	return ok
}

// validationErrorFrom converts validator output into the typed validation
// error, rooting every path at the given payload name.
func validationErrorFrom(root string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// An InvalidValidationError here means the schema types themselves
		// are broken, not the payload.
		return &ConfigError{Op: "schema validation", Err: err}
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Path:    rootedPath(root, fe.Namespace()),
			Message: messageForTag(fe),
		})
	}
	return &ValidationError{Fields: fields}
}

// rootedPath swaps the leading Go type name of a validator namespace for
// the payload name, e.g. "AnalysisInputs.isotopeInputs.collagen.col13c"
// becomes "inputJson.isotopeInputs.collagen.col13c".
func rootedPath(root, namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return root + namespace[i:]
	}
	return root
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return "must be a non-empty string"
	case "measurement":
		return "must be a finite number or null"
	case "finite":
		return "must be a finite number"
	case "refsample":
		return fmt.Sprintf("must be one of [%s]", strings.Join(KnownReferenceSamples(), " "))
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "unique":
		return "must not contain duplicates"
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
