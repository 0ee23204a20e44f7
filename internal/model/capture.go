package model

// CapturedResponse is the decoded record of one matching network response
// observed during a page visit.
type CapturedResponse struct {
	URL       string            `json:"url"`
	Status    int               `json:"status"`
	Headers   map[string]string `json:"headers"`
	RequestID string            `json:"request_id"`
	Params    map[string]string `json:"params"`
}

// Captures holds captured responses keyed by request id.
type Captures map[string]CapturedResponse

// Merge copies every entry of other into c. Later entries overwrite earlier
// ones with the same request id.
func (c Captures) Merge(other Captures) {
	for id, resp := range other {
		c[id] = resp
	}
}

// HasParam reports whether any captured response carries name=value.
func (c Captures) HasParam(name, value string) bool {
	for _, resp := range c {
		if v, ok := resp.Params[name]; ok && v == value {
			return true
		}
	}
	return false
}
