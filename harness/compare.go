package harness

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/nsf/jsondiff"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"

	"github.com/tos-network/toslab/vector"
)

// ComparePostState checks the expected snapshot against the exported
// one field by field. Only fields present in expected are checked, and
// both sides are coerced to strings before comparing so the node is
// free to encode numbers as integers or as text. The first mismatch
// wins and names the field with both values. An account named in
// expected but absent from actual is always a mismatch, whatever
// fields it carries.
func ComparePostState(expected, actual *vector.PostState) error {
	if expected == nil {
		return nil
	}
	if actual == nil {
		return fmt.Errorf("state export missing for post_state comparison")
	}
	for _, field := range vector.GlobalStateFields {
		want, ok := expected.GlobalState[field]
		if !ok {
			continue
		}
		got, present := actual.GlobalState[field]
		if !present || fmt.Sprint(got) != fmt.Sprint(want) {
			return fmt.Errorf("global_state.%s mismatch: expected=%v got=%v", field, want, got)
		}
	}

	expAccounts := normalizeAccounts(expected.Accounts)
	actAccounts := normalizeAccounts(actual.Accounts)
	for _, addr := range sortedAddresses(expAccounts) {
		exp := expAccounts[addr]
		act, ok := actAccounts[addr]
		if !ok {
			return fmt.Errorf("missing account %s in actual state", addr)
		}
		for _, field := range vector.AccountFields {
			want, present := exp[field]
			if !present {
				continue
			}
			if fmt.Sprint(act[field]) != fmt.Sprint(want) {
				return fmt.Errorf("account %s %s mismatch: expected=%v got=%v", addr, field, want, act[field])
			}
		}
	}
	return nil
}

// CompareResponse checks an rpc response against the expected one under
// full structural equality. No coercion and no subset semantics here:
// rpc responses are expected to be byte-for-byte reproducible, so the
// whole document must match.
func CompareResponse(expected any, actual json.RawMessage) error {
	want, err := json.Marshal(expected)
	if err != nil {
		return fmt.Errorf("expected response is not valid json: %w", err)
	}
	got := []byte(actual)
	if len(got) == 0 {
		got = []byte("null")
	}
	opts := jsondiff.DefaultConsoleOptions()
	diff, report := jsondiff.Compare(want, got, &opts)
	if diff != jsondiff.FullMatch {
		return fmt.Errorf("rpc response mismatch:\n%s", report)
	}
	return nil
}

// PostStateDiff renders an ASCII JSON diff of the two snapshots for
// verbose failure reporting. Best effort: an empty string means the
// diff itself could not be produced.
func PostStateDiff(expected, actual *vector.PostState) string {
	expJSON, err := json.Marshal(expected)
	if err != nil {
		return ""
	}
	actJSON, err := json.Marshal(actual)
	if err != nil {
		return ""
	}
	delta, err := gojsondiff.New().Compare(expJSON, actJSON)
	if err != nil || !delta.Modified() {
		return ""
	}
	var left any
	if err := json.Unmarshal(expJSON, &left); err != nil {
		return ""
	}
	cfg := formatter.AsciiFormatterConfig{ShowArrayIndex: true}
	text, err := formatter.NewAsciiFormatter(left, cfg).Format(delta)
	if err != nil {
		return ""
	}
	return text
}

// normalizeAccounts keys account records by address; records without
// one are dropped.
func normalizeAccounts(raw []map[string]any) map[string]map[string]any {
	out := make(map[string]map[string]any, len(raw))
	for _, item := range raw {
		addr, _ := item["address"].(string)
		if addr == "" {
			continue
		}
		out[addr] = item
	}
	return out
}

func sortedAddresses(accounts map[string]map[string]any) []string {
	addrs := make([]string, 0, len(accounts))
	for addr := range accounts {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}
