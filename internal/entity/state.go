package entity

// BrowserState is a snapshot of the active page handed to the model.
type BrowserState struct {
	URL        string
	Title      string
	DOMSummary string
}
