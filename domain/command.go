package domain

// Command is a unit of work routed through the gateway pipeline.
type Command interface {
	Room() RoomID
}

// PostMessageCommand asks the gateway to validate, moderate and fan out
// a message that a connected client produced.
type PostMessageCommand struct {
	Message Message
}

func (p PostMessageCommand) Room() RoomID {
	return p.Message.RoomID
}

// MarkReadCommand records a read receipt and notifies the sender.
type MarkReadCommand struct {
	Message Message
	Reader  ParticipantID
}

func (m MarkReadCommand) Room() RoomID {
	return m.Message.RoomID
}
