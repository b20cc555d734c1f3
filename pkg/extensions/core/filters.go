package core

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

func filterTrim(input any, _ ...any) (any, error) {
	if input == nil {
		return "", nil
	}
	return strings.TrimSpace(fmt.Sprint(input)), nil
}

// filterLowerFirst lowercases the first non-whitespace rune, keeping any
// leading whitespace.
func filterLowerFirst(input any, _ ...any) (any, error) {
	if input == nil {
		return "", nil
	}
	t := fmt.Sprint(input)

	var (
		firstNonWhitespaceIndex int
		firstRune               rune
		firstRuneSize           int
	)

	for i, r := range t {
		if !strings.ContainsRune(" \t\n\r", r) {
			firstNonWhitespaceIndex = i
			firstRune = r
			firstRuneSize = utf8.RuneLen(r)
			break
		}
	}

	if firstRune == 0 {
		return t, nil
	}

	prefix := t[:firstNonWhitespaceIndex]
	loweredRune := strings.ToLower(string(firstRune))
	rest := t[firstNonWhitespaceIndex+firstRuneSize:]

	return prefix + loweredRune + rest, nil
}

func filterUpper(input any, _ ...any) (any, error) {
	if input == nil {
		return "", nil
	}
	return strings.ToUpper(fmt.Sprint(input)), nil
}

func filterLower(input any, _ ...any) (any, error) {
	if input == nil {
		return "", nil
	}
	return strings.ToLower(fmt.Sprint(input)), nil
}

// filterTitle uppercases the first letter of every word and lowercases the
// rest.
func filterTitle(input any, _ ...any) (any, error) {
	if input == nil {
		return "", nil
	}
	var b strings.Builder
	startOfWord := true
	for _, r := range fmt.Sprint(input) {
		switch {
		case unicode.IsSpace(r):
			startOfWord = true
			b.WriteRune(r)
		case startOfWord:
			b.WriteRune(unicode.ToUpper(r))
			startOfWord = false
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String(), nil
}

func filterDefault(input any, args ...any) (any, error) {
	if isEmpty(input) {
		if len(args) == 0 {
			return "", nil
		}
		return args[0], nil
	}
	return input, nil
}

func filterJoin(input any, args ...any) (any, error) {
	glue := ""
	if len(args) > 0 && args[0] != nil {
		glue = fmt.Sprint(args[0])
	}
	items, ok := toSlice(input)
	if !ok {
		if input == nil {
			return "", nil
		}
		return nil, fmt.Errorf("core: join expects a list, got %T", input)
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprint(item)
	}
	return strings.Join(parts, glue), nil
}

func filterLength(input any, _ ...any) (any, error) {
	if input == nil {
		return 0, nil
	}
	if s, ok := input.(string); ok {
		return utf8.RuneCountInString(s), nil
	}
	rv := reflect.ValueOf(input)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return rv.Len(), nil
	default:
		return utf8.RuneCountInString(fmt.Sprint(input)), nil
	}
}

func toSlice(input any) ([]any, bool) {
	if input == nil {
		return nil, false
	}
	if items, ok := input.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(input)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
