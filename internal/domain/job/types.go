package job

// Job types routed to exactly one registered handler each.
const (
	TypeMissedCallTextBack = "missed_call.text_back"
	TypeReviewRequest      = "review.request"
	TypeAIReply            = "conversation.ai_reply"
)
