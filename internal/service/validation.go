package service

import (
	"errors"
	"strings"
	"unicode"

	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateDraft normalizes d and reports the first failing field.
func validateDraft(d *domain.OrgDraft) error {
	d.Normalize()
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	fe := verrs[0]
	return &ValidationError{Field: fieldName(fe.Field()), Message: validationMessage(fe.Tag(), fe.Param())}
}

// validatePatch checks the fields present in p.
func validatePatch(p *domain.OrgPatch) error {
	if p.IsEmpty() {
		return &ValidationError{Message: "nothing to update"}
	}
	checks := []struct {
		field string
		ptr   **string
		rule  string
	}{
		{"name", &p.Name, "required,max=64"},
		{"code", &p.Code, "required,max=64"},
		{"description", &p.Description, "max=500"},
		{"region", &p.Region, "max=64"},
		{"leaderId", &p.LeaderID, "max=64"},
	}
	for _, c := range checks {
		if *c.ptr == nil {
			continue
		}
		v := strings.TrimSpace(**c.ptr)
		*c.ptr = &v
		if err := checkVar(c.field, v, c.rule); err != nil {
			return err
		}
	}
	if p.Type != nil {
		if err := checkVar("type", int(*p.Type), "oneof=1 2"); err != nil {
			return err
		}
	}
	if p.Status != nil {
		if err := checkVar("status", int(*p.Status), "oneof=0 1"); err != nil {
			return err
		}
	}
	if p.SortOrder != nil {
		if err := checkVar("sortOrder", *p.SortOrder, "gte=0"); err != nil {
			return err
		}
	}
	return nil
}

func checkVar(field string, value any, rule string) error {
	err := validate.Var(value, rule)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &ValidationError{Field: field, Message: validationMessage(verrs[0].Tag(), verrs[0].Param())}
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

func requireID(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// fieldName lowercases the first rune of a Go field name.
func fieldName(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
