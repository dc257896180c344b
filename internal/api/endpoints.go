package api

// Endpoint path templates. Placeholders use the `:name` form resolved by
// ResolveTemplate before dispatch.
const (
	EndpointLogin          = "/user/login"
	EndpointRegister       = "/user/register"
	EndpointVerify         = "/user/verify"
	EndpointForgetPassword = "/user/forget_password"
	EndpointRestorePass    = "/user/restore_password"

	EndpointChats       = "/chat"
	EndpointChatHistory = "/chat/:chat_id/history"
	EndpointChatMessage = "/chat/:chat_id/message"

	EndpointModels = "/models"
	EndpointTokens = "/tokens"
)
