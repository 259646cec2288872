package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate checks form payloads against their struct tags.
var validate = validator.New(validator.WithRequiredStructEnabled())

// formField is one labelled input of a form.
type formField struct {
	label       string
	key         string // struct field name reported by the validator
	value       string
	placeholder string
	masked      bool
}

// form is a vertical list of inputs edited in place.
type form struct {
	title  string
	fields []formField
	focus  int
	err    string
}

func newForm(title string, fields ...formField) form {
	return form{title: title, fields: fields}
}

// update applies a key press. It reports whether the form was submitted or
// cancelled.
func (f form) update(key string) (form, bool, bool) {
	switch key {
	case "enter":
		if f.focus < len(f.fields)-1 {
			f.focus++
			return f, false, false
		}
		return f, true, false
	case "ctrl+s":
		return f, true, false
	case "esc":
		return f, false, true
	case "tab", "down":
		f.focus = (f.focus + 1) % len(f.fields)
	case "shift+tab", "up":
		f.focus = (f.focus - 1 + len(f.fields)) % len(f.fields)
	default:
		fields := append([]formField(nil), f.fields...)
		fields[f.focus].value = editRune(fields[f.focus].value, key)
		f.fields = fields
		f.err = ""
	}
	return f, false, false
}

// value returns the trimmed value of the field with key.
func (f form) value(key string) string {
	for _, fl := range f.fields {
		if fl.key == key {
			if fl.masked {
				return fl.value
			}
			return strings.TrimSpace(fl.value)
		}
	}
	return ""
}

// check validates payload and records a readable error on the form.
func (f form) check(payload any) (form, bool) {
	if err := validate.Struct(payload); err != nil {
		f.err = f.describe(err)
		return f, false
	}
	f.err = ""
	return f, true
}

// describe turns validator errors into "Label: problem" text.
func (f form) describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, f.labelFor(fe.StructField())+": "+problem(fe))
	}
	return strings.Join(msgs, "; ")
}

func (f form) labelFor(structField string) string {
	for _, fl := range f.fields {
		if fl.key == structField {
			return fl.label
		}
	}
	return structField
}

func problem(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "not a valid email"
	case "min":
		return fmt.Sprintf("at least %s characters", fe.Param())
	case "eqfield":
		return "does not match"
	case "datetime":
		return "use YYYY-MM-DD"
	case "gte":
		return "must be " + fe.Param() + " or more"
	case "oneof":
		return "one of " + fe.Param()
	default:
		return "invalid"
	}
}

func (f form) View() string {
	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render(f.title) + "\n\n")
	for i, fl := range f.fields {
		b.WriteString(" " + renderInput(fl.label, fl.value, fl.placeholder, i == f.focus, fl.masked) + "\n")
	}
	if f.err != "" {
		b.WriteString("\n " + errorStyle.Render(f.err) + "\n")
	}
	return b.String()
}
