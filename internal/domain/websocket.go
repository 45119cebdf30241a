package domain

type WebsocketMessageType string

const (
	WebsocketMessageSend     WebsocketMessageType = "send"
	WebsocketMessageReceive  WebsocketMessageType = "receive"
	WebsocketMessagePingPong WebsocketMessageType = "pingPong"
	WebsocketMessageClose    WebsocketMessageType = "sendCloseMessage"
)

// WebsocketMessagePackage is one WebSocket frame event. StringValue and
// DataValue are mutually exclusive: text frames carry StringValue, binary
// frames carry DataValue.
type WebsocketMessagePackage struct {
	ID          string               `json:"id"`
	CreatedAt   float64              `json:"createdAt"`
	MessageType WebsocketMessageType `json:"messageType"`
	StringValue *string              `json:"stringValue"`
	DataValue   []byte               `json:"dataValue"`
}

// NewTextFrame builds a frame event for a text payload.
func NewTextFrame(connectionID string, t WebsocketMessageType, payload string) WebsocketMessagePackage {
	return WebsocketMessagePackage{
		ID:          connectionID,
		CreatedAt:   Now(),
		MessageType: t,
		StringValue: &payload,
	}
}

// NewBinaryFrame builds a frame event for a binary payload.
func NewBinaryFrame(connectionID string, t WebsocketMessageType, payload []byte) WebsocketMessagePackage {
	return WebsocketMessagePackage{
		ID:          connectionID,
		CreatedAt:   Now(),
		MessageType: t,
		DataValue:   cloneBytes(payload),
	}
}

func (m WebsocketMessagePackage) clone() WebsocketMessagePackage {
	cp := m
	if m.StringValue != nil {
		s := *m.StringValue
		cp.StringValue = &s
	}
	cp.DataValue = cloneBytes(m.DataValue)
	return cp
}
