package command

type RecoverPasswordCommand struct {
	Email string
}

type RecoverPasswordCommandResult struct {
	MessageId string `json:"messageId"`
}

type ResetPasswordCommand struct {
	Token    string
	Password string
}

type SendTestEmailCommandResult struct {
	MessageId string `json:"messageId"`
}
