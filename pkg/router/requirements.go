package router

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Requirement restricts the values a path parameter may take
type Requirement interface {
	Validate(value string) bool
}

// RequirementFunc adapts a function to the Requirement interface
type RequirementFunc func(value string) bool

// Validate calls f(value)
func (f RequirementFunc) Validate(value string) bool {
	return f(value)
}

// OneOf accepts any of the listed values
func OneOf(values ...string) Requirement {
	allowed := append([]string(nil), values...)
	return RequirementFunc(func(value string) bool {
		for _, v := range allowed {
			if v == value {
				return true
			}
		}
		return false
	})
}

// Equals accepts only the string form of v
func Equals(v any) Requirement {
	want := fmt.Sprint(v)
	return RequirementFunc(func(value string) bool {
		return value == want
	})
}

// Matches accepts values matching re. The expression is not anchored
// unless it says so.
func Matches(re *regexp.Regexp) Requirement {
	return RequirementFunc(re.MatchString)
}

// UUID accepts values that parse as a UUID
func UUID() Requirement {
	return RequirementFunc(func(value string) bool {
		return uuid.Validate(value) == nil
	})
}

// Int accepts base-10 integers
func Int() Requirement {
	return RequirementFunc(func(value string) bool {
		_, err := strconv.ParseInt(value, 10, 64)
		return err == nil
	})
}

// RequirementFrom converts a requirement value as written in route options.
//
// A string lists alternatives separated by '|', a slice lists allowed values,
// a *regexp.Regexp or func(string) bool is used as given, and any other
// scalar must be matched exactly.
func RequirementFrom(v any) (Requirement, error) {
	switch r := v.(type) {
	case nil:
		return nil, fmt.Errorf("requirement must not be null")
	case Requirement:
		return r, nil
	case func(string) bool:
		return RequirementFunc(r), nil
	case *regexp.Regexp:
		return Matches(r), nil
	case string:
		return OneOf(strings.Split(r, "|")...), nil
	case []string:
		return OneOf(r...), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		values := make([]string, rv.Len())
		for i := range values {
			values[i] = fmt.Sprint(rv.Index(i).Interface())
		}
		return OneOf(values...), nil
	case reflect.Map, reflect.Struct, reflect.Func, reflect.Chan, reflect.Pointer:
		return nil, fmt.Errorf("unsupported requirement of type %T", v)
	}
	return Equals(v), nil
}
