package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/diagnosis/frontdesk/services/frontdesk/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	return v
}

func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

// validateStruct turns validator failures into a single ValidationError message.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Validation("%v", err)
	}

	root := reflect.TypeOf(s)
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe, root))
	}
	return domain.Validation("%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError, root reflect.Type) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_without":
		return fmt.Sprintf("%s is required when %s is not given", field, paramNames(fe, root))
	case "required_unless":
		return field + " is required for this payment method"
	case "excluded_with":
		return fmt.Sprintf("%s must not be combined with %s", field, paramNames(fe, root))
	case "email":
		return field + " must be a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte", "gt":
		return fmt.Sprintf("%s must be at least %s", field, minFor(fe))
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

func minFor(fe validator.FieldError) string {
	if fe.Tag() == "gt" {
		return "1"
	}
	return fe.Param()
}

// paramNames renders the sibling fields named in a cross-field tag by their json names.
func paramNames(fe validator.FieldError, root reflect.Type) string {
	parent := parentStruct(root, fe.StructNamespace())
	params := strings.Fields(fe.Param())
	names := make([]string, 0, len(params))
	for _, p := range params {
		name := strings.ToLower(p)
		if parent != nil {
			if f, ok := parent.FieldByName(p); ok {
				name = jsonName(f)
			}
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

// parentStruct follows a namespace like "WalkInRequest.Guest.Phone" from root to the
// struct that declares the last field. It returns nil when the path cannot be followed.
func parentStruct(root reflect.Type, namespace string) reflect.Type {
	parts := strings.Split(namespace, ".")
	t := root
	for i := 1; i < len(parts)-1; i++ {
		t = indirect(t)
		if t == nil || t.Kind() != reflect.Struct {
			return nil
		}
		f, ok := t.FieldByName(strings.SplitN(parts[i], "[", 2)[0])
		if !ok {
			return nil
		}
		t = f.Type
	}
	t = indirect(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	return t
}

func indirect(t reflect.Type) reflect.Type {
	for t != nil && (t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Map) {
		t = t.Elem()
	}
	return t
}
