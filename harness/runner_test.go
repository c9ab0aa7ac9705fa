package harness

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tos-network/toslab/vector"
)

func named(name string, vec *vector.TestVector) vector.Named {
	vec.Name = name
	return vector.Named{File: "suite.json", Vector: *vec}
}

func TestRunAllRunnableFalseNeverDispatches(t *testing.T) {
	c := newFakeClient()
	f := false
	vecs := []vector.Named{named("skipped", &vector.TestVector{
		Runnable: &f,
		Input:    vector.Input{WireHex: "aabb"},
	})}

	verdicts := NewRunner(c, &bytes.Buffer{}).RunAll(vecs)

	require.Len(t, verdicts, 1)
	assert.Equal(t, StatusSkip, verdicts[0].Status)
	assert.Empty(t, c.calls, "no network call may happen for runnable=false")
}

func TestRunAllPreflightSkipIsNotFailure(t *testing.T) {
	c := newFakeClient()
	vecs := []vector.Named{named("badsig", &vector.TestVector{
		Input: vector.Input{Tx: map[string]any{"signature": "abcd"}},
	})}

	var out bytes.Buffer
	verdicts := NewRunner(c, &out).RunAll(vecs)

	require.Len(t, verdicts, 1)
	assert.Equal(t, StatusSkip, verdicts[0].Status)
	assert.Contains(t, verdicts[0].Reason, "signature")
	assert.Empty(t, c.calls)
	assert.Contains(t, out.String(), "[SKIP] suite.json/badsig")

	s := Summarize(verdicts)
	assert.Equal(t, Summary{Skipped: 1}, s)
	assert.Equal(t, 0, s.ExitCode())
}

func TestRunAllScenarioWireHex(t *testing.T) {
	// End to end: reset, post the raw encoding, judge by success flag.
	c := newFakeClient()
	c.respond[pathTxExecute] = `{"success":true}`
	truth := true
	vecs := []vector.Named{named("exec", &vector.TestVector{
		Input:    vector.Input{Kind: "tx", WireHex: "aabb"},
		Expected: vector.Expected{Success: &truth},
	})}

	var out bytes.Buffer
	verdicts := NewRunner(c, &out).RunAll(vecs)

	assert.Equal(t, []string{"POST " + pathStateReset, "POST " + pathTxExecute}, c.calls)
	assert.JSONEq(t, `{"wire_hex":"aabb"}`, c.payloads[pathTxExecute])
	assert.Equal(t, StatusOK, verdicts[0].Status)
	assert.Contains(t, out.String(), "[OK]   suite.json/exec")
}

func TestRunAllSuccessMismatch(t *testing.T) {
	c := newFakeClient()
	c.respond[pathTxExecute] = `{"success":false,"error_code":12}`
	truth := true
	vecs := []vector.Named{named("exec", &vector.TestVector{
		Input:    vector.Input{WireHex: "aabb"},
		Expected: vector.Expected{Success: &truth},
	})}

	verdicts := NewRunner(c, &bytes.Buffer{}).RunAll(vecs)
	assert.Equal(t, StatusFail, verdicts[0].Status)
	assert.Contains(t, verdicts[0].Reason, "success expected true got false")
	assert.Equal(t, 1, Summarize(verdicts).ExitCode())
}

func TestRunAllErrorCodeAxis(t *testing.T) {
	c := newFakeClient()
	c.respond[pathTxExecute] = `{"success":false,"error_code":12}`
	code := 12
	vecs := []vector.Named{named("err", &vector.TestVector{
		Input:    vector.Input{WireHex: "aabb"},
		Expected: vector.Expected{ErrorCode: &code},
	})}
	verdicts := NewRunner(c, &bytes.Buffer{}).RunAll(vecs)
	assert.Equal(t, StatusOK, verdicts[0].Status)
}

func TestRunAllDigestComparedOnlyWhenBothNonEmpty(t *testing.T) {
	truth := true
	testCases := []struct {
		name     string
		actual   string
		expected string
		want     Status
	}{
		{"both set equal", `{"success":true,"state_digest":"0xd1"}`, "0xd1", StatusOK},
		{"both set different", `{"success":true,"state_digest":"0xd2"}`, "0xd1", StatusFail},
		{"actual empty", `{"success":true}`, "0xd1", StatusOK},
		{"expected empty", `{"success":true,"state_digest":"0xd2"}`, "", StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newFakeClient()
			c.respond[pathTxExecute] = tc.actual
			vecs := []vector.Named{named("d", &vector.TestVector{
				Input:    vector.Input{WireHex: "aabb"},
				Expected: vector.Expected{Success: &truth, StateDigest: tc.expected},
			})}
			verdicts := NewRunner(c, &bytes.Buffer{}).RunAll(vecs)
			assert.Equal(t, tc.want, verdicts[0].Status)
		})
	}
}

func TestRunAllPostStateAxis(t *testing.T) {
	c := newFakeClient()
	c.respond[pathTxExecute] = `{"success":true}`
	c.respond[pathStateExport] = `{"accounts":[{"address":"0xAA","balance":50}]}`
	vecs := []vector.Named{named("post", &vector.TestVector{
		Input: vector.Input{WireHex: "aabb"},
		Expected: vector.Expected{
			PostState: &vector.PostState{Accounts: []map[string]any{{"address": "0xAA", "balance": "50"}}},
		},
	})}

	verdicts := NewRunner(c, &bytes.Buffer{}).RunAll(vecs)
	assert.Equal(t, StatusOK, verdicts[0].Status, "string coercion must accept balance 50 vs \"50\"")
	assert.Contains(t, c.calls, "GET "+pathStateExport)
}

func TestRunAllRPCAxisReplacesExecutionAxes(t *testing.T) {
	c := newFakeClient()
	c.respond[pathJSONRPC] = `{"jsonrpc":"2.0","result":{"height":7}}`
	truth := true
	vecs := []vector.Named{named("rpc", &vector.TestVector{
		Input: vector.Input{RPC: map[string]any{"method": "get_height"}},
		Expected: vector.Expected{
			// Success would fail if the execution axes were applied: the
			// fake answers no success flag. It must be ignored for rpc.
			Success:  &truth,
			Response: map[string]any{"jsonrpc": "2.0", "result": map[string]any{"height": float64(7)}},
		},
	})}

	verdicts := NewRunner(c, &bytes.Buffer{}).RunAll(vecs)
	assert.Equal(t, StatusOK, verdicts[0].Status)
}

func TestRunAllRPCMismatch(t *testing.T) {
	c := newFakeClient()
	c.respond[pathJSONRPC] = `{"jsonrpc":"2.0","result":{"height":8}}`
	vecs := []vector.Named{named("rpc", &vector.TestVector{
		Input:    vector.Input{RPC: map[string]any{"method": "get_height"}},
		Expected: vector.Expected{Response: map[string]any{"jsonrpc": "2.0", "result": map[string]any{"height": float64(7)}}},
	})}
	verdicts := NewRunner(c, &bytes.Buffer{}).RunAll(vecs)
	assert.Equal(t, StatusFail, verdicts[0].Status)
}

func TestRunAllTransportFailureContinues(t *testing.T) {
	// A transport error fails that vector and the run moves on.
	c := newFakeClient()
	c.fail[pathTxRoundtrip] = &StatusError{Code: 503}
	c.respond[pathTxExecute] = `{"success":true}`
	truth := true
	vecs := []vector.Named{
		named("broken", &vector.TestVector{
			Input: vector.Input{Kind: "tx_roundtrip", WireHex: "aa"},
		}),
		named("fine", &vector.TestVector{
			Input:    vector.Input{WireHex: "bb"},
			Expected: vector.Expected{Success: &truth},
		}),
	}

	verdicts := NewRunner(c, &bytes.Buffer{}).RunAll(vecs)
	require.Len(t, verdicts, 2)
	assert.Equal(t, StatusFail, verdicts[0].Status)
	assert.Contains(t, verdicts[0].Reason, "http 503")
	assert.Equal(t, StatusOK, verdicts[1].Status)
	assert.Equal(t, Summary{OK: 1, Failed: 1}, Summarize(verdicts))
}

func TestRunAllPatternFilter(t *testing.T) {
	c := newFakeClient()
	c.respond[pathTxExecute] = `{"success":true}`
	vecs := []vector.Named{
		named("alpha", &vector.TestVector{Input: vector.Input{WireHex: "aa"}}),
		named("beta", &vector.TestVector{Input: vector.Input{WireHex: "bb"}}),
	}

	r := NewRunner(c, &bytes.Buffer{})
	r.SetPattern(regexp.MustCompile("beta"))
	verdicts := r.RunAll(vecs)

	require.Len(t, verdicts, 1)
	assert.Equal(t, "beta", verdicts[0].Name)
}

func TestRunAllDump(t *testing.T) {
	c := newFakeClient()
	c.respond[pathTxExecute] = `{"success":true}`
	vecs := []vector.Named{named("d", &vector.TestVector{Input: vector.Input{WireHex: "aa"}})}

	var out bytes.Buffer
	r := NewRunner(c, &out)
	r.SetDump(true)
	r.RunAll(vecs)

	assert.Contains(t, out.String(), "[DUMP] suite.json/d: request=")
	assert.Contains(t, out.String(), "[DUMP] suite.json/d: exec_res=")
}

func TestSummarizeAndExitCodes(t *testing.T) {
	verdicts := []Verdict{
		{Status: StatusOK}, {Status: StatusOK},
		{Status: StatusSkip},
		{Status: StatusFail},
	}
	s := Summarize(verdicts)
	assert.Equal(t, Summary{OK: 2, Skipped: 1, Failed: 1}, s)
	assert.Equal(t, 1, s.ExitCode())
	assert.Equal(t, 0, Summarize(nil).ExitCode())
}
