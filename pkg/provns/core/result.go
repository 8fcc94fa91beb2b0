package core

// Result is a backend-produced record tagged with the concrete path it
// came from. The payload is opaque to the dispatcher; property
// providers conventionally use a map of property name to value.
type Result struct {
	Path     string      `json:"path"`
	Provider string      `json:"provider"`
	Value    interface{} `json:"value"`
}
