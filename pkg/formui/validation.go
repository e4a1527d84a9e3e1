package formui

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/fullform/pkg/domain"
)

var (
	// ErrAnswerRequired is returned for an empty answer to a required question.
	ErrAnswerRequired = errors.New("an answer is required")
	// ErrInvalidAnswer wraps every datatype validation failure.
	ErrInvalidAnswer = errors.New("invalid answer")
)

func validateAnswer(dt domain.Datatype, required bool, choices []string, answer any) error {
	if isEmpty(answer) {
		if required {
			return ErrAnswerRequired
		}
		return nil
	}

	switch dt {
	case domain.DatatypeInt:
		f, ok := toFloat(answer)
		if !ok || f != math.Trunc(f) {
			return fmt.Errorf("%w: %v is not an integer", ErrInvalidAnswer, answer)
		}
	case domain.DatatypeFloat:
		if _, ok := toFloat(answer); !ok {
			return fmt.Errorf("%w: %v is not a number", ErrInvalidAnswer, answer)
		}
	case domain.DatatypeGeo:
		return validateGeo(answer)
	case domain.DatatypeSelect:
		if !validChoice(choices, answer) {
			return fmt.Errorf("%w: %v is not one of the choices", ErrInvalidAnswer, answer)
		}
	case domain.DatatypeMultiSelect:
		items, ok := toSlice(answer)
		if !ok {
			return fmt.Errorf("%w: multiselect answer must be a list", ErrInvalidAnswer)
		}
		for _, item := range items {
			if !validChoice(choices, item) {
				return fmt.Errorf("%w: %v is not one of the choices", ErrInvalidAnswer, item)
			}
		}
	case domain.DatatypeDate:
		s, ok := answer.(string)
		if !ok {
			return fmt.Errorf("%w: date must be a string", ErrInvalidAnswer)
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
		}
	case domain.DatatypeTime:
		s, ok := answer.(string)
		if !ok {
			return fmt.Errorf("%w: time must be a string", ErrInvalidAnswer)
		}
		if _, err := time.Parse("15:04", s); err != nil {
			if _, err2 := time.Parse("15:04:05", s); err2 != nil {
				return fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
			}
		}
	}
	return nil
}

func validateGeo(answer any) error {
	items, ok := toSlice(answer)
	if !ok || len(items) != 2 {
		return fmt.Errorf("%w: location must be a [lat, lon] pair", ErrInvalidAnswer)
	}
	lat, ok1 := toFloat(items[0])
	lon, ok2 := toFloat(items[1])
	if !ok1 || !ok2 {
		return fmt.Errorf("%w: location must be numeric", ErrInvalidAnswer)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: location out of range", ErrInvalidAnswer)
	}
	return nil
}

// validChoice accepts a 1-based choice index or the choice text.
func validChoice(choices []string, v any) bool {
	if s, ok := v.(string); ok {
		for _, c := range choices {
			if c == s {
				return true
			}
		}
	}
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) {
		return false
	}
	return f >= 1 && int(f) <= len(choices)
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// sameAnswer compares answers the way they travel as JSON: numbers by value whatever
// their Go type, slices element by element.
func sameAnswer(a, b any) bool {
	if _, isStr := a.(string); !isStr {
		if _, isStr := b.(string); !isStr {
			if fa, ok := toFloat(a); ok {
				fb, ok := toFloat(b)
				return ok && fa == fb
			}
		}
	}
	sa, okA := toSlice(a)
	sb, okB := toSlice(b)
	if okA && okB {
		if len(sa) != len(sb) {
			return false
		}
		for i := range sa {
			if !sameAnswer(sa[i], sb[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func toSlice(v any) ([]any, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
