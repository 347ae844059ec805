package settings

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"

	"github.com/eugenenazirov/pivot/internal/configerr"
)

// Package-level validator used by Validate.
var validate *validator.Validate

// urlSafeRe matches names that can appear unescaped in a URL path segment.
var urlSafeRe = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

// isoDurationRe matches ISO-8601 durations such as P1D, PT1H or P1Y2M3DT4H.
var isoDurationRe = regexp.MustCompile(`^P(?:\d+Y)?(?:\d+M)?(?:\d+W)?(?:\d+D)?(?:T(?:\d+H)?(?:\d+M)?(?:\d+S)?)?$`)

func init() {
	validate = validator.New()

	// Report YAML keys rather than Go field names.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := validate.RegisterValidation("urlsafe", validateURLSafe); err != nil {
		panic(fmt.Errorf("register validator urlsafe: %w", err))
	}
	if err := validate.RegisterValidation("iso_duration", validateISODuration); err != nil {
		panic(fmt.Errorf("register validator iso_duration: %w", err))
	}
}

func validateURLSafe(fl validator.FieldLevel) bool {
	return urlSafeRe.MatchString(fl.Field().String())
}

func validateISODuration(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "P" || strings.HasSuffix(s, "T") {
		return false
	}
	return isoDurationRe.MatchString(s)
}

// Validate checks s and returns the first violation found. Structural
// rules run first, then the cross-reference rules cube by cube in
// declaration order. It performs no I/O.
func Validate(s *Settings) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}

	clusters := make(map[string]struct{}, len(s.Clusters))
	for _, c := range s.Clusters {
		if _, dup := clusters[c.Name]; dup {
			return &configerr.InvalidSettingError{Reason: fmt.Sprintf("duplicate cluster name '%s'", c.Name)}
		}
		clusters[c.Name] = struct{}{}
	}

	cubes := make(map[string]struct{}, len(s.DataCubes))
	for i := range s.DataCubes {
		cube := &s.DataCubes[i]
		if _, dup := cubes[cube.Name]; dup {
			return &configerr.InvalidSettingError{Reason: fmt.Sprintf("duplicate data cube name '%s'", cube.Name)}
		}
		cubes[cube.Name] = struct{}{}

		if cube.ClusterName != NativeCluster {
			if _, ok := clusters[cube.ClusterName]; !ok {
				return &configerr.InvalidSettingError{
					Reason: fmt.Sprintf("data cube '%s' refers to unknown cluster '%s'", cube.Name, cube.ClusterName),
				}
			}
		}

		if err := validateDataCube(cube); err != nil {
			return err
		}
	}

	return nil
}

func validateDataCube(cube *DataCube) error {
	dimensions, err := uniqueNames("dimension", cube.Name, len(cube.Dimensions), func(i int) string { return cube.Dimensions[i].Name })
	if err != nil {
		return err
	}
	measures, err := uniqueNames("measure", cube.Name, len(cube.Measures), func(i int) string { return cube.Measures[i].Name })
	if err != nil {
		return err
	}

	if name, ok := firstSharedName(cube.Dimensions, measures); ok {
		return &configerr.DuplicateNameError{Name: name, DataCube: cube.Name}
	}

	if !cube.autofillsDimensions() {
		if cube.TimeAttribute != "" {
			if _, ok := dimensions[cube.TimeAttribute]; !ok {
				return unknownReference(cube.Name, "timeAttribute", "dimension", cube.TimeAttribute)
			}
		}
		for _, name := range cube.DefaultPinnedDimensions {
			if _, ok := dimensions[name]; !ok {
				return unknownReference(cube.Name, "defaultPinnedDimensions", "dimension", name)
			}
		}
	}

	if !cube.autofillsMeasures() {
		if cube.DefaultSortMeasure != "" {
			if _, ok := measures[cube.DefaultSortMeasure]; !ok {
				return unknownReference(cube.Name, "defaultSortMeasure", "measure", cube.DefaultSortMeasure)
			}
		}
		for _, name := range cube.DefaultSelectedMeasures {
			if _, ok := measures[name]; !ok {
				return unknownReference(cube.Name, "defaultSelectedMeasures", "measure", name)
			}
		}
	}

	return nil
}

// firstSharedName returns the first dimension, in declaration order, whose
// name is also a measure name.
func firstSharedName(dimensions []Dimension, measures map[string]struct{}) (string, bool) {
	for _, d := range dimensions {
		if _, ok := measures[d.Name]; ok {
			return d.Name, true
		}
	}
	return "", false
}

func uniqueNames(kind, cube string, n int, name func(int) string) (map[string]struct{}, error) {
	names := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		v := name(i)
		if _, dup := names[v]; dup {
			return nil, &configerr.InvalidSettingError{
				Reason: fmt.Sprintf("duplicate %s name '%s' in data cube: '%s'", kind, v, cube),
			}
		}
		names[v] = struct{}{}
	}
	return names, nil
}

func unknownReference(cube, field, kind, name string) error {
	return &configerr.InvalidSettingError{
		Reason: fmt.Sprintf("%s of data cube '%s' refers to unknown %s '%s'", field, cube, kind, name),
	}
}

// formatValidationError renders the first validator failure as user-facing
// text.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return &configerr.InvalidSettingError{Reason: err.Error()}
	}

	fieldError := validationErrors[0]
	return &configerr.InvalidSettingError{
		Path:   fieldPath(fieldError.Namespace()),
		Reason: formatFieldError(fieldError),
	}
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func formatFieldError(fieldError validator.FieldError) string {
	value := fieldError.Value()

	switch fieldError.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got '%v'", strings.ReplaceAll(fieldError.Param(), " ", ", "), value)
	case "gte":
		return fmt.Sprintf("must be at least %s, got '%v'", fieldError.Param(), value)
	case "url":
		return fmt.Sprintf("must be a valid URL, got '%v'", value)
	case "timezone":
		return fmt.Sprintf("must be a valid IANA timezone, got '%v'", value)
	case "urlsafe":
		return fmt.Sprintf("must only contain letters, digits, '_' and '-', got '%v'", value)
	case "iso_duration":
		return fmt.Sprintf("must be an ISO-8601 duration (e.g. 'P1D', 'PT1H'), got '%v'", value)
	default:
		return fmt.Sprintf("failed validation '%s', got '%v'", fieldError.Tag(), value)
	}
}
