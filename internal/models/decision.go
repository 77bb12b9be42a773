package models

// Intent is the classifier's categorical judgment of a message.
type Intent string

const (
	IntentConversation Intent = "conversation"
	IntentCommand      Intent = "command"
	IntentAmbiguous    Intent = "ambiguous"
)

// Action is the policy engine's operational decision, distinct from intent.
type Action string

const (
	ActionTalk Action = "talk"
	ActionAct  Action = "act"
	ActionAsk  Action = "ask"
)

// Classification is the structured result returned by the intent
// classifier capability.
type Classification struct {
	Intent     Intent
	Confidence float64
	Reason     string
	Question   string // short clarifying question when the classifier suggests ask
}
