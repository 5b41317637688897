package models

// Notification is the provider independent push payload.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Badge *int   `json:"badge,omitempty"`
	// CollapseKey groups notifications on the device (android collapse key, apns thread id).
	CollapseKey string `json:"collapseKey,omitempty"`
	// Tag replaces an earlier notification with the same tag.
	Tag  string            `json:"tag,omitempty"`
	Data map[string]string `json:"data,omitempty"`
}

// TokenResult is the delivery outcome for a single device token.
type TokenResult struct {
	Token        string `json:"token"`
	MessageID    string `json:"messageId,omitempty"`
	Error        string `json:"error,omitempty"`
	Unregistered bool   `json:"unregistered,omitempty"`
}

func (r TokenResult) OK() bool {
	return r.Error == ""
}

// FanOutJob describes one new message to be announced to the channel.
type FanOutJob struct {
	ChannelID string `json:"chatId" validate:"required"`
	SenderID  string `json:"senderId" validate:"required"`
	MessageID string `json:"messageId" validate:"required"`
	// ThreadID is set for thread replies.
	ThreadID string `json:"threadId,omitempty"`
	Content  string `json:"content"`
}

// DedupKey identifies the job across redeliveries.
func (j FanOutJob) DedupKey() string {
	if j.ThreadID != "" {
		return "fanout:" + j.ChannelID + ":" + j.MessageID + ":" + j.ThreadID
	}
	return "fanout:" + j.ChannelID + ":" + j.MessageID
}

type FanOutReport struct {
	ChannelID  string   `json:"chatId"`
	MessageID  string   `json:"messageId"`
	Recipients int      `json:"recipients"`
	Delivered  int      `json:"delivered"`
	Failed     int      `json:"failed"`
	Skipped    bool     `json:"skipped,omitempty"`
	Failures   []string `json:"failures,omitempty"`
}
