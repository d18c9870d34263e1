package store

import (
	"encoding/json"
	"strings"
)

func marshalStrings(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return strings.Join(ss, "\x1f")
}

func unmarshalStrings(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\x1f")
}

func marshalMetadata(m SymbolMetadata) string {
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func unmarshalMetadata(s string) SymbolMetadata {
	var m SymbolMetadata
	if s == "" {
		return m
	}
	_ = json.Unmarshal([]byte(s), &m)
	return m
}

func placeholderList(n int) string {
	if n <= 0 {
		return ""
	}
	b := strings.Builder{}
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('?')
	}
	return b.String()
}

func int64sToArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func stringsToArgs(ss []string) []any {
	args := make([]any, len(ss))
	for i, s := range ss {
		args[i] = s
	}
	return args
}
