package command

import "ecodescarte-user-service/internal/application/common"

type LoginUserCommand struct {
	Email    string
	Password string
}

type LoginUserCommandResult struct {
	Token string             `json:"token"`
	User  *common.UserResult `json:"user"`
}
