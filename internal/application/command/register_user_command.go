package command

import "ecodescarte-user-service/internal/application/common"

type RegisterUserCommand struct {
	Name                  string
	CPF                   string
	BirthDate             string
	Email                 string
	Password              string
	PostalCode            string
	Street                string
	Number                string
	Complement            string
	Neighborhood          string
	City                  string
	State                 string
	TruckAlert            bool
	EnvironmentalPolicies bool
	DisposalTips          bool
}

type RegisterUserCommandResult struct {
	Token string             `json:"token"`
	User  *common.UserResult `json:"user"`
}
