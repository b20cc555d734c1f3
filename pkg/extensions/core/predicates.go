package core

import "reflect"

func testDefined(input any, _ ...any) (bool, error) {
	return input != nil, nil
}

func testNone(input any, _ ...any) (bool, error) {
	return input == nil, nil
}

func testEmpty(input any, _ ...any) (bool, error) {
	return isEmpty(input), nil
}

func testEven(input any, _ ...any) (bool, error) {
	n, err := toInt(input)
	if err != nil {
		return false, err
	}
	return n%2 == 0, nil
}

func testOdd(input any, _ ...any) (bool, error) {
	n, err := toInt(input)
	if err != nil {
		return false, err
	}
	return n%2 != 0, nil
}

func testIterable(input any, _ ...any) (bool, error) {
	if input == nil {
		return false, nil
	}
	switch reflect.ValueOf(input).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return true, nil
	default:
		return false, nil
	}
}

// isEmpty treats nil, "", false, nil pointers, and zero-length collections
// as empty. Zero numbers are not empty.
func isEmpty(input any) bool {
	if input == nil {
		return true
	}
	switch v := input.(type) {
	case string:
		return v == ""
	case bool:
		return !v
	}
	rv := reflect.ValueOf(input)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
