package protocol

// HELLO (host -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	BotName         string            `json:"bot_name"`
	Capabilities    HelloCapabilities `json:"capabilities,omitempty"`
	Auth            *HelloAuth        `json:"auth,omitempty"`
}

type HelloCapabilities struct {
	AckRequired bool `json:"ack_required,omitempty"`
	MaxQueue    int  `json:"max_queue,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token,omitempty"`
}

// WELCOME (server -> host)
type WelcomeMsg struct {
	Type               string             `json:"type"`
	ProtocolVersion    string             `json:"protocol_version"`
	SessionID          string             `json:"session_id"`
	BotName            string             `json:"bot_name"`
	Subject            string             `json:"subject,omitempty"`
	ServerCapabilities ServerCapabilities `json:"server_capabilities,omitempty"`
	Catalogs           CatalogDigests     `json:"catalogs"`
}

type ServerCapabilities struct {
	Ack bool `json:"ack,omitempty"`
}

type CatalogDigests struct {
	TasksDigest   string `json:"tasks_digest"`
	RatingsDigest string `json:"ratings_digest"`
}

// MESSAGE (host -> server): one chat message seen by the bot.
type MessageMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	MessageID       string    `json:"message_id"`
	UserID          string    `json:"user_id"`
	UserName        string    `json:"user_name,omitempty"`
	GroupID         string    `json:"group_id,omitempty"`
	Segments        []Segment `json:"segments,omitempty"`
	// Text is used when the host does not split messages into segments.
	Text string `json:"text,omitempty"`
}

// REPLY (server -> host)
type ReplyMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	InReplyTo       string `json:"in_reply_to"`
	UserID          string `json:"user_id"`
	GroupID         string `json:"group_id,omitempty"`
	Text            string `json:"text"`
}

type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
}
