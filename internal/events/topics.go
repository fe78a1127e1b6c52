package events

// Topic constants for domain events emitted by the order platform.
const (
	TopicOrderCreated   = "order.created"
	TopicOrderUpdated   = "order.updated"
	TopicOrderDeleted   = "order.deleted"
	TopicPostalImported = "postal.imported"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderUpdated,
		TopicOrderDeleted,
		TopicPostalImported,
	}
}
