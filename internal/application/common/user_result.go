package common

// UserResult is the public projection of a user. It never carries the
// password hash or timestamps.
type UserResult struct {
	Id          uint              `json:"id"`
	Name        string            `json:"nome"`
	CPF         string            `json:"cpf,omitempty"`
	BirthDate   string            `json:"nascimento,omitempty"`
	Email       string            `json:"email"`
	Address     *AddressResult    `json:"endereco,omitempty"`
	Preferences *PreferenceResult `json:"preferencias,omitempty"`
}

type AddressResult struct {
	PostalCode   string `json:"cep"`
	Street       string `json:"logradouro"`
	Number       string `json:"numero"`
	Complement   string `json:"complemento"`
	Neighborhood string `json:"bairro"`
	City         string `json:"cidade"`
	State        string `json:"estado"`
}

type PreferenceResult struct {
	TruckAlert            bool `json:"alerta_caminhao"`
	EnvironmentalPolicies bool `json:"politicas_ambientais"`
	DisposalTips          bool `json:"dicas_descarte"`
}
