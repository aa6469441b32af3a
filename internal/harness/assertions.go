package harness

import (
	"fmt"
	"strings"
)

// evaluate checks every assertion and returns the failures as messages.
func evaluate(assertions []Assertion, result *Result) []string {
	var failures []string
	for i, a := range assertions {
		if err := check(i, a, result); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func check(index int, a Assertion, result *Result) error {
	fail := func(format string, args ...any) error {
		return &AssertionError{Index: index, Type: a.Type, Message: fmt.Sprintf(format, args...)}
	}

	switch a.Type {
	case AssertTraceContains:
		if count(result.Trace, a.Line) == 0 {
			return fail("line %q not found in trace", a.Line)
		}

	case AssertTraceCount:
		if got := count(result.Trace, a.Line); got != a.Count {
			return fail("line %q: expected %d occurrences, got %d", a.Line, a.Count, got)
		}

	case AssertTraceOrder:
		return checkOrder(result.Trace, a.Lines, fail)

	case AssertFinalState:
		if result.State != a.State {
			return fail("expected state %q, got %q", a.State, result.State)
		}

	case AssertChannelState:
		st, ok := result.Channels[a.Channel]
		if !ok {
			return fail("channel %q not found", a.Channel)
		}
		if st.ConsecutiveErrors != a.Consecutive || st.Escalated != a.Escalated {
			return fail("channel %q: expected consecutive=%d escalated=%t, got consecutive=%d escalated=%t",
				a.Channel, a.Consecutive, a.Escalated, st.ConsecutiveErrors, st.Escalated)
		}

	default:
		return fail("unknown assertion type")
	}
	return nil
}

// checkOrder verifies want appears in trace as a subsequence.
func checkOrder(trace, want []string, fail func(string, ...any) error) error {
	pos := 0
	for _, line := range want {
		found := false
		for pos < len(trace) {
			pos++
			if trace[pos-1] == line {
				found = true
				break
			}
		}
		if !found {
			return fail("line %q not found in order (expected sequence: %s)", line, strings.Join(want, " | "))
		}
	}
	return nil
}

func count(trace []string, line string) int {
	n := 0
	for _, l := range trace {
		if l == line {
			n++
		}
	}
	return n
}
