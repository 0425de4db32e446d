package validation

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	apperrors "tenancy-workflow/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-\(\)]{10,}$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

var (
	schemaMu    sync.RWMutex
	schemaCache = map[string]*gojsonschema.Schema{}
)

// compile parses and caches a JSON schema document keyed by its text.
func compile(schemaJSON string) (*gojsonschema.Schema, error) {
	schemaMu.RLock()
	s, ok := schemaCache[schemaJSON]
	schemaMu.RUnlock()
	if ok {
		return s, nil
	}

	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	schemaMu.Lock()
	schemaCache[schemaJSON] = s
	schemaMu.Unlock()
	return s, nil
}

// ValidatePayload checks a raw JSON document against a JSON schema and
// returns a VALIDATION_FAILED error listing every offending field.
func ValidatePayload(schemaJSON string, payload []byte) error {
	schema, err := compile(schemaJSON)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return apperrors.NewFieldError("payload", fmt.Sprintf("malformed JSON: %v", err))
	}
	if result.Valid() {
		return nil
	}

	fields := make([]apperrors.FieldError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		fields = append(fields, apperrors.FieldError{
			Field:   fieldName(desc),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return apperrors.NewValidationError("payload failed schema validation", fields...)
}

// fieldName reports the offending property. For "required" errors gojsonschema
// points at the parent object, so the missing property name is used instead.
func fieldName(desc gojsonschema.ResultError) string {
	if desc.Type() == "required" {
		if prop, ok := desc.Details()["property"].(string); ok {
			if ctx := desc.Field(); ctx != "(root)" {
				return ctx + "." + prop
			}
			return prop
		}
	}
	return desc.Field()
}

func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidateDate accepts calendar dates in YYYY-MM-DD form.
func ValidateDate(date string) bool {
	return datePattern.MatchString(date)
}

// SameEmail compares addresses case-insensitively after trimming.
func SameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
