package rollcall

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NewID allocates a UUIDv7. Values are time ordered and strictly increasing
// within a process, so comparing ids as strings follows allocation order.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to allocate id: %w", err)
	}
	return id.String(), nil
}

// Today returns the UTC calendar date of t in DateLayout
func Today(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// IsValidDate reports whether s is a real calendar date in DateLayout
func IsValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// validateStruct runs struct validation and converts failures into a ValidationError
func validateStruct(op string, v any, message string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewValidationError(op, err.Error())
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
		if fe.Tag() == "datetime" {
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", fe.Field())
		}
	}
	return NewValidationError(op, message, fields...)
}

// sortNewestFirst orders records by timestamp descending. Equal timestamps
// fall back to id descending, i.e. the later insertion first.
func sortNewestFirst(records []*AttendanceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return idAfter(a.ID, b.ID)
	})
}

// idAfter compares ids as strings, except that two purely numeric ids
// (legacy timestamp ids) compare numerically.
func idAfter(a, b RecordID) bool {
	if isDigits(string(a)) && isDigits(string(b)) && len(a) != len(b) {
		return len(a) > len(b)
	}
	return a > b
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
