package domain

type InteractionKind string

const (
	InteractionCommand InteractionKind = "command"
	InteractionText    InteractionKind = "text"
	InteractionButton  InteractionKind = "button"
)

// Interaction is one inbound event from the chat transport. Payload is the
// command line, the free text, or the button identifier depending on Kind.
type Interaction struct {
	UserID      int64           `json:"userId" validate:"required,gt=0"`
	Kind        InteractionKind `json:"kind" validate:"required,oneof=command text button"`
	Payload     string          `json:"payload" validate:"max=4096"`
	MessageID   int64           `json:"messageId,omitempty"`
	Handle      string          `json:"handle,omitempty" validate:"max=64"`
	DisplayName string          `json:"displayName,omitempty" validate:"max=128"`
	Locale      string          `json:"locale,omitempty" validate:"omitempty,max=16"`
	Group       bool            `json:"group,omitempty"`
}

type Discipline string

const (
	DisciplineNew  Discipline = "new"
	DisciplineEdit Discipline = "edit"
)

type Button struct {
	Text string `json:"text"`
	Data string `json:"data,omitempty"`
	URL  string `json:"url,omitempty"`
}

type Keyboard [][]Button

// Reply is one outbound message. EditMessageID is set when Discipline is edit.
// An edit that carries Photo targets a photo message and replaces its caption
// rather than its text.
type Reply struct {
	Text          string     `json:"text"`
	Keyboard      Keyboard   `json:"keyboard,omitempty"`
	Photo         string     `json:"photo,omitempty"`
	Discipline    Discipline `json:"discipline"`
	EditMessageID int64      `json:"editMessageId,omitempty"`
	// Notice is a short toast acknowledging a button press.
	Notice string `json:"notice,omitempty"`
}
