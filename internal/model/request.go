package model

// Request describes an outbound HTTP call built by an adapter.
// Adapters only build descriptors; the bridge executes them.
type Request struct {
	Method string            `json:"method"`
	URL    string            `json:"url"`
	Header map[string]string `json:"header,omitempty"`
	Body   []byte            `json:"body,omitempty"`
}
