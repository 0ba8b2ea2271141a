package date

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

var timeType = reflect.TypeOf(time.Time{})

// Coerce converts a decoded document value into a time. Strings go through p;
// time values pass unchanged.
func Coerce(v any, p Parser, ref time.Time) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("%w: null", ErrUnparseable)
		}
		return *t, nil
	case string:
		return p.Parse(t, ref)
	default:
		return time.Time{}, fmt.Errorf("%w: unexpected %T", ErrUnparseable, v)
	}
}

// DecodeHook returns a mapstructure hook that fills time.Time fields from
// strings using p.
func DecodeHook(p Parser, ref time.Time) mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if to != timeType || from.Kind() != reflect.String {
			return data, nil
		}
		return p.Parse(reflect.ValueOf(data).String(), ref)
	}
}
