package feeders

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/golobby/cast"
)

var durationType = reflect.TypeOf(time.Duration(0))

// SetFromString converts raw into the type of v and assigns it.
// Durations use time.ParseDuration, string slices are comma separated and
// every other scalar goes through cast.
func SetFromString(v reflect.Value, raw string) error {
	if !v.CanSet() {
		return fmt.Errorf("field of type %s is not settable", v.Type())
	}

	switch {
	case v.Type() == durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		v.SetInt(int64(d))
		return nil
	case v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.String:
		parts := strings.Split(raw, ",")
		out := reflect.MakeSlice(v.Type(), 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			out = reflect.Append(out, reflect.ValueOf(p).Convert(v.Type().Elem()))
		}
		v.Set(out)
		return nil
	case v.Kind() == reflect.Pointer:
		elem := reflect.New(v.Type().Elem())
		if err := SetFromString(elem.Elem(), raw); err != nil {
			return err
		}
		v.Set(elem)
		return nil
	}

	converted, err := cast.FromType(raw, v.Type())
	if err != nil {
		return err
	}
	v.Set(reflect.ValueOf(converted).Convert(v.Type()))
	return nil
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// isNestedStruct reports whether a field should be walked rather than set.
func isNestedStruct(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t != reflect.TypeOf(time.Time{})
}
