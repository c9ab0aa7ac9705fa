package harness

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"

	"github.com/tos-network/toslab/log"
	"github.com/tos-network/toslab/vector"
)

// Status is the outcome class of one vector.
type Status int

const (
	StatusOK Status = iota
	StatusSkip
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusSkip:
		return "SKIP"
	case StatusFail:
		return "FAIL"
	}
	return "UNKNOWN"
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Verdict is the outcome of one vector. Reason is empty for OK.
type Verdict struct {
	File   string `json:"file"`
	Name   string `json:"name"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func (v Verdict) Ref() string {
	return v.File + "/" + v.Name
}

// Summary is a pure fold over verdicts.
type Summary struct {
	OK      int `json:"ok"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

func Summarize(verdicts []Verdict) Summary {
	var s Summary
	for _, v := range verdicts {
		switch v.Status {
		case StatusOK:
			s.OK++
		case StatusSkip:
			s.Skipped++
		case StatusFail:
			s.Failed++
		}
	}
	return s
}

// ExitCode is the process exit status for a finished run: 0 when every
// vector passed or was skipped, 1 on any failure. The no-vectors case
// (exit 2) is decided before a Runner ever exists.
func (s Summary) ExitCode() int {
	if s.Failed > 0 {
		return 1
	}
	return 0
}

// Runner executes vectors strictly sequentially against one client.
type Runner struct {
	client  Client
	out     io.Writer
	dump    bool
	pattern *regexp.Regexp
}

func NewRunner(client Client, out io.Writer) *Runner {
	return &Runner{client: client, out: out}
}

// SetDump enables echoing of intermediate request/response JSON.
func (r *Runner) SetDump(dump bool) { r.dump = dump }

// SetPattern restricts the run to vectors whose file/name matches.
func (r *Runner) SetPattern(re *regexp.Regexp) { r.pattern = re }

// RunAll processes the vectors one at a time in the order given,
// printing one verdict line per vector. No verdict of one vector
// affects another: the node is reset at the start of every dispatch.
func (r *Runner) RunAll(vectors []vector.Named) []Verdict {
	verdicts := make([]Verdict, 0, len(vectors))
	for i := range vectors {
		nv := &vectors[i]
		if r.pattern != nil && !r.pattern.MatchString(nv.File+"/"+nv.Vector.Name) {
			continue
		}
		v := r.runOne(nv)
		switch v.Status {
		case StatusOK:
			fmt.Fprintf(r.out, "[OK]   %s\n", v.Ref())
		case StatusSkip:
			fmt.Fprintf(r.out, "[SKIP] %s: %s\n", v.Ref(), v.Reason)
		case StatusFail:
			fmt.Fprintf(r.out, "[FAIL] %s: %s\n", v.Ref(), v.Reason)
		}
		verdicts = append(verdicts, v)
	}
	return verdicts
}

func (r *Runner) runOne(nv *vector.Named) Verdict {
	vec := &nv.Vector
	v := Verdict{File: nv.File, Name: vec.Name}
	if v.Name == "" {
		v.Name = "<unnamed>"
	}

	if vec.Skipped() {
		v.Status = StatusSkip
		v.Reason = "marked not runnable"
		return v
	}
	if err := Preflight(vec); err != nil {
		v.Status = StatusSkip
		v.Reason = err.Error()
		return v
	}

	res, err := Dispatch(r.client, vec)
	if err != nil {
		v.Status = StatusFail
		v.Reason = err.Error()
		return v
	}
	if r.dump {
		r.dumpResult(v.Ref(), vec, res)
	}

	if reason := evaluate(vec, res); reason != "" {
		v.Status = StatusFail
		v.Reason = reason
		return v
	}
	v.Status = StatusOK
	return v
}

// evaluate walks the expectation axes in order and returns the first
// failing one. For rpc vectors the response comparison replaces all
// execution-result axes.
func evaluate(vec *vector.TestVector, res *Result) string {
	exp := &vec.Expected
	if res.Kind == vector.KindRPC {
		if exp.Response == nil {
			return ""
		}
		if err := CompareResponse(exp.Response, res.Response); err != nil {
			return err.Error()
		}
		return ""
	}
	if exp.Success != nil && res.Exec.Success != *exp.Success {
		return fmt.Sprintf("success expected %v got %v", *exp.Success, res.Exec.Success)
	}
	if exp.ErrorCode != nil && res.Exec.ErrorCode != *exp.ErrorCode {
		return fmt.Sprintf("error_code expected %d got %d", *exp.ErrorCode, res.Exec.ErrorCode)
	}
	if exp.StateDigest != "" && res.Exec.StateDigest != "" && exp.StateDigest != res.Exec.StateDigest {
		return fmt.Sprintf("state_digest expected %s got %s", exp.StateDigest, res.Exec.StateDigest)
	}
	if exp.PostState != nil {
		if err := ComparePostState(exp.PostState, res.Post); err != nil {
			if diff := PostStateDiff(exp.PostState, res.Post); diff != "" {
				log.Debug(log.CompareModule, "post_state diff", "vector", vec.Name, "diff", diff)
			}
			return err.Error()
		}
	}
	return ""
}

func (r *Runner) dumpResult(ref string, vec *vector.TestVector, res *Result) {
	if res.LoadResult != nil {
		fmt.Fprintf(r.out, "[DUMP] %s: state_load=%s\n", ref, compactJSON(res.LoadResult))
	}
	if res.Request != nil {
		fmt.Fprintf(r.out, "[DUMP] %s: request=%s\n", ref, compactJSON(res.Request))
	}
	if res.Kind == vector.KindRPC {
		fmt.Fprintf(r.out, "[DUMP] %s: response=%s\n", ref, compactJSON(res.Response))
	} else {
		fmt.Fprintf(r.out, "[DUMP] %s: exec_res=%s\n", ref, compactJSON(res.Exec))
	}
	if res.Post != nil {
		fmt.Fprintf(r.out, "[DUMP] %s: post_state=%s\n", ref, compactJSON(res.Post))
	}
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
