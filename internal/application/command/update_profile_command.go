package command

import "ecodescarte-user-service/internal/application/common"

// UpdateProfileCommand replaces name, birth date and e-mail. Address and
// Preferences are left untouched when nil.
type UpdateProfileCommand struct {
	UserId      uint
	FullName    string
	BirthDate   string
	Email       string
	Address     *common.AddressResult
	Preferences *common.PreferenceResult
}

type UpdateProfileCommandResult struct {
	User *common.UserResult `json:"user"`
}
