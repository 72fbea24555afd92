package mapper

import (
	"ecodescarte-user-service/internal/application/common"
	"ecodescarte-user-service/internal/domain/entities"
)

const birthDateLayout = "2006-01-02"

// NewUserSummaryFromEntity is the projection returned on registration.
func NewUserSummaryFromEntity(user *entities.User) *common.UserResult {
	result := &common.UserResult{
		Id:    user.Id,
		Name:  user.FullName,
		CPF:   user.CPF,
		Email: user.Email,
	}
	if !user.BirthDate.IsZero() {
		result.BirthDate = user.BirthDate.Format(birthDateLayout)
	}
	return result
}

func NewUserResultFromEntity(user *entities.User) *common.UserResult {
	result := NewUserSummaryFromEntity(user)
	if a := user.Address; a != nil {
		result.Address = &common.AddressResult{
			PostalCode:   a.PostalCode,
			Street:       a.Street,
			Number:       a.Number,
			Complement:   a.Complement,
			Neighborhood: a.Neighborhood,
			City:         a.City,
			State:        a.State,
		}
	}
	if p := user.Preference; p != nil {
		result.Preferences = &common.PreferenceResult{
			TruckAlert:            p.TruckAlert,
			EnvironmentalPolicies: p.EnvironmentalPolicies,
			DisposalTips:          p.DisposalTips,
		}
	}
	return result
}

func NewAddressFromResult(a *common.AddressResult) *entities.Address {
	return entities.NewAddress(a.PostalCode, a.Street, a.Number, a.Complement, a.Neighborhood, a.City, a.State)
}

func NewPreferenceFromResult(p *common.PreferenceResult) *entities.Preference {
	return entities.NewPreference(p.TruckAlert, p.EnvironmentalPolicies, p.DisposalTips)
}
