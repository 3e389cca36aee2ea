package event

// Routing keys are dotted namespace strings matched exactly; there is no
// wildcard routing.
const (
	TypeCallMissed    = "call.missed"
	TypeCallConnected = "call.connected"

	TypeConversationMessageReceived = "conversation.message_received"

	TypeMessageSent = "message.sent"

	TypeAppointmentCompleted   = "appointment.completed"
	TypeAppointmentRescheduled = "appointment.rescheduled"

	TypeReviewSubmitted = "review.submitted"

	TypePaymentSucceeded    = "payment.succeeded"
	TypeSubscriptionUpdated = "subscription.updated"
)

const (
	AggregateCall         = "call"
	AggregateConversation = "conversation"
	AggregateAppointment  = "appointment"
	AggregateSubscription = "subscription"
	AggregateMessage      = "message"
)
