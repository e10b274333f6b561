package handler

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	boolType     = reflect.TypeOf(false)
	stringType   = reflect.TypeOf("")
	durationType = reflect.TypeOf(time.Duration(0))

	intTypes = []reflect.Type{
		reflect.TypeOf(int(0)),
		reflect.TypeOf(int8(0)),
		reflect.TypeOf(int16(0)),
		reflect.TypeOf(int32(0)),
		reflect.TypeOf(int64(0)),
	}
	uintTypes = []reflect.Type{
		reflect.TypeOf(uint(0)),
		reflect.TypeOf(uint8(0)),
		reflect.TypeOf(uint16(0)),
		reflect.TypeOf(uint32(0)),
		reflect.TypeOf(uint64(0)),
	}
	floatTypes = []reflect.Type{
		reflect.TypeOf(float32(0)),
		reflect.TypeOf(float64(0)),
	}
)

// Builtins returns the parameter handlers every center starts with. Each
// one supports exact types only, so no two of them overlap.
func Builtins() []Parameter {
	return []Parameter{
		Bool{},
		Int{},
		Uint{},
		Float{},
		String{},
		Duration{},
	}
}

func oneOf(t reflect.Type, types []reflect.Type) bool {
	for _, candidate := range types {
		if t == candidate {
			return true
		}
	}
	return false
}

type Bool struct{}

func (Bool) Supports(t reflect.Type) bool { return t == boolType }

func (Bool) Parse(_ reflect.Type, token string, _ []string) (any, int, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "":
		return true, 0, nil
	case "true", "yes", "y", "1":
		return true, 1, nil
	case "false", "no", "n", "0":
		return false, 1, nil
	default:
		return nil, 0, fmt.Errorf("not a boolean: %q", token)
	}
}

func (Bool) Default(reflect.Type) (any, bool) { return nil, false }

type Int struct{}

func (Int) Supports(t reflect.Type) bool { return oneOf(t, intTypes) }

func (Int) Parse(t reflect.Type, token string, _ []string) (any, int, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(token), 10, t.Bits())
	if err != nil {
		return nil, 0, fmt.Errorf("not a %s: %w", t, err)
	}
	v := reflect.New(t).Elem()
	v.SetInt(n)
	return v.Interface(), 1, nil
}

func (Int) Default(reflect.Type) (any, bool) { return nil, false }

type Uint struct{}

func (Uint) Supports(t reflect.Type) bool { return oneOf(t, uintTypes) }

func (Uint) Parse(t reflect.Type, token string, _ []string) (any, int, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(token), 10, t.Bits())
	if err != nil {
		return nil, 0, fmt.Errorf("not a %s: %w", t, err)
	}
	v := reflect.New(t).Elem()
	v.SetUint(n)
	return v.Interface(), 1, nil
}

func (Uint) Default(reflect.Type) (any, bool) { return nil, false }

type Float struct{}

func (Float) Supports(t reflect.Type) bool { return oneOf(t, floatTypes) }

func (Float) Parse(t reflect.Type, token string, _ []string) (any, int, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(token), t.Bits())
	if err != nil {
		return nil, 0, fmt.Errorf("not a %s: %w", t, err)
	}
	v := reflect.New(t).Elem()
	v.SetFloat(n)
	return v.Interface(), 1, nil
}

func (Float) Default(reflect.Type) (any, bool) { return nil, false }

type String struct{}

func (String) Supports(t reflect.Type) bool { return t == stringType }

func (String) Parse(_ reflect.Type, token string, _ []string) (any, int, error) {
	return token, 1, nil
}

func (String) Default(reflect.Type) (any, bool) { return nil, false }

type Duration struct{}

func (Duration) Supports(t reflect.Type) bool { return t == durationType }

func (Duration) Parse(_ reflect.Type, token string, _ []string) (any, int, error) {
	d, err := time.ParseDuration(strings.TrimSpace(token))
	if err != nil {
		return nil, 0, fmt.Errorf("not a duration: %w", err)
	}
	return d, 1, nil
}

func (Duration) Default(reflect.Type) (any, bool) { return nil, false }
