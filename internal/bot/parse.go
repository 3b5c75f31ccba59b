package bot

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// EditOp is the verb of a filter edit command.
type EditOp string

// Supported edit operations.
const (
	OpAdd    EditOp = "add"
	OpRemove EditOp = "remove"
)

const maxSeconds = 24 * 60 * 60

// ParseEditArgs parses "add|remove <values>". Values are separated by commas
// when any comma is present, otherwise by whitespace.
func ParseEditArgs(args string) (EditOp, []string, error) {
	opStr, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	op := EditOp(strings.ToLower(opStr))
	if op != OpAdd && op != OpRemove {
		return "", nil, fmt.Errorf("usage: add|remove <value...>")
	}

	var values []string
	if strings.Contains(rest, ",") {
		for _, v := range strings.Split(rest, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	} else {
		values = strings.Fields(rest)
	}
	if len(values) == 0 {
		return "", nil, fmt.Errorf("at least one value is required")
	}
	return op, values, nil
}

// ParseSeconds parses a whole number of seconds between minimum and one day.
func ParseSeconds(args string, minimum int) (time.Duration, error) {
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || n < minimum || n > maxSeconds {
		return 0, fmt.Errorf("seconds must be between %d and %d", minimum, maxSeconds)
	}
	return time.Duration(n) * time.Second, nil
}

func parseAll[T any](values []string, parse func(string) (T, error)) ([]T, error) {
	out := make([]T, 0, len(values))
	for _, v := range values {
		t, err := parse(v)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// applyEdit returns set with values added or removed, keeping the existing
// order and appending new values at the end.
func applyEdit[T comparable](set []T, op EditOp, values []T) []T {
	out := slices.Clone(set)
	for _, v := range values {
		switch op {
		case OpAdd:
			if !slices.Contains(out, v) {
				out = append(out, v)
			}
		case OpRemove:
			out = slices.DeleteFunc(out, func(x T) bool { return x == v })
		}
	}
	return out
}

func toggle[T comparable](set []T, v T) []T {
	if slices.Contains(set, v) {
		return applyEdit(set, OpRemove, []T{v})
	}
	return applyEdit(set, OpAdd, []T{v})
}
