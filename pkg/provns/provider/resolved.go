package provider

// Resolved is the outcome of expanding one virtual path: the owning
// provider and the ordered concrete, provider-native paths the virtual
// path denotes. The instance is borrowed for the current fan-out
// iteration and never retained by the dispatcher.
type Resolved struct {
	Info     Info
	Instance Provider
	Paths    []string
}
