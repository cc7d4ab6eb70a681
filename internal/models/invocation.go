package models

import "time"

// InvocationResult is the normalized outcome of one successful provider call.
// It lives only as long as the stage result built from it.
type InvocationResult struct {
	Output   map[string]any `json:"output"`
	Elapsed  time.Duration  `json:"elapsed"`
	Attempts int            `json:"attempts"`
}

// Empty reports whether the extracted output carries no usable content: no
// fields at all, or every field an empty string. Downstream stages cannot be
// fed empty content, so the orchestrator treats this as failure.
func (r *InvocationResult) Empty() bool {
	if len(r.Output) == 0 {
		return true
	}
	for _, v := range r.Output {
		switch val := v.(type) {
		case string:
			if val != "" {
				return false
			}
		case nil:
		default:
			return false
		}
	}
	return true
}
