package kafka

// Message is a key/value pair published to the audit topic. The key keeps
// events of the same type on one partition so replay order is stable per type.
type Message struct {
	Key     string
	Value   []byte
	Headers map[string]string
}
