package entity

// ActionRecord is one completed action in the agent's history. The history
// is fed back into the prompt so the model remembers what it already did.
type ActionRecord struct {
	Reasoning string // thought before the action
	Action    string // tool name (click, type, ...)
	Args      string // arguments as a JSON string, cheap for the model to read
	Result    string // "ok" or the error text
}
