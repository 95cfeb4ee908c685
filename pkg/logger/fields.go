package logger

const (
	FieldError     = "error"
	FieldOwnerUID  = "owner_uid"
	FieldChatID    = "chat_id"
	FieldSenderID  = "sender_id"
	FieldMethod    = "method"
	FieldStatus    = "status"
	FieldRequestID = "request_id"
)
