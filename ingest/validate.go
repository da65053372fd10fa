package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/TFMV/keywordgraph/models"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate

	recordIndex = regexp.MustCompile(`\.(Nodes|Links)\[(\d+)\]`)
)

// Validate checks field-level constraints of every record: non-empty ids,
// group at least 1, positive frequency and value, and distinct endpoints.
// Referential checks happen in models.Build.
func Validate(ds *models.Dataset) error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	err := validate.Struct(ds)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.Wrap(err, "validating dataset")
	}

	fe := fieldErrs[0]
	invalid := &models.InvalidRecordError{
		Kind:   "record",
		Index:  -1,
		Field:  strings.ToLower(fe.Field()),
		Reason: reason(fe),
	}
	if m := recordIndex.FindStringSubmatch(fe.Namespace()); m != nil {
		invalid.Kind = strings.TrimSuffix(strings.ToLower(m[1]), "s")
		invalid.Index, _ = strconv.Atoi(m[2])
	}

	return errors.WithHint(errors.WithStack(invalid),
		fmt.Sprintf("%d invalid field(s) in total; fix the %s field of %s %d first", len(fieldErrs), invalid.Field, invalid.Kind, invalid.Index))
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "nefield":
		return "must differ from " + strings.ToLower(fe.Param())
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}
