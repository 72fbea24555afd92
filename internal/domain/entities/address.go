package entities

import (
	"strings"

	"ecodescarte-user-service/internal/apperror"
)

type Address struct {
	Id           uint
	UserId       uint
	PostalCode   string
	Street       string
	Number       string
	Complement   string
	Neighborhood string
	City         string
	State        string
}

func NewAddress(postalCode, street, number, complement, neighborhood, city, state string) *Address {
	return &Address{
		PostalCode:   strings.TrimSpace(postalCode),
		Street:       strings.TrimSpace(street),
		Number:       strings.TrimSpace(number),
		Complement:   strings.TrimSpace(complement),
		Neighborhood: strings.TrimSpace(neighborhood),
		City:         strings.TrimSpace(city),
		State:        strings.ToUpper(strings.TrimSpace(state)),
	}
}

func (a *Address) validate() []apperror.Detail {
	var details []apperror.Detail
	if a.PostalCode == "" {
		details = append(details, apperror.Detail{Field: "cep", Message: "CEP é obrigatório", Type: "notNull"})
	} else if len(a.PostalCode) > 9 {
		details = append(details, apperror.Detail{Field: "cep", Message: "CEP deve ter no máximo 9 caracteres", Type: "len", Value: a.PostalCode})
	}
	if a.State != "" && len(a.State) != 2 {
		details = append(details, apperror.Detail{Field: "estado", Message: "Estado deve ser a sigla com 2 letras", Type: "len", Value: a.State})
	}
	return details
}

type Preference struct {
	Id                    uint
	UserId                uint
	TruckAlert            bool
	EnvironmentalPolicies bool
	DisposalTips          bool
}

func NewPreference(truckAlert, environmentalPolicies, disposalTips bool) *Preference {
	return &Preference{
		TruckAlert:            truckAlert,
		EnvironmentalPolicies: environmentalPolicies,
		DisposalTips:          disposalTips,
	}
}
