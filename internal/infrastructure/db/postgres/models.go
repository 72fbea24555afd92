package postgres

import (
	"time"
)

type UserModel struct {
	Id         uint             `gorm:"primaryKey"`
	CreatedAt  time.Time        `gorm:"column:created_at"`
	UpdatedAt  time.Time        `gorm:"column:updated_at"`
	FullName   string           `gorm:"column:nome_completo;size:100;not null"`
	CPF        string           `gorm:"column:cpf;size:14;uniqueIndex;not null"`
	BirthDate  time.Time        `gorm:"column:data_nascimento;type:date;not null"`
	Email      string           `gorm:"column:email;size:100;uniqueIndex;not null"`
	Password   string           `gorm:"column:senha;size:255;not null"`
	Active     bool             `gorm:"column:ativo;default:true"`
	Address    *AddressModel    `gorm:"foreignKey:UserId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Preference *PreferenceModel `gorm:"foreignKey:UserId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (UserModel) TableName() string {
	return "usuarios"
}

type AddressModel struct {
	Id           uint      `gorm:"primaryKey"`
	UserId       uint      `gorm:"column:usuario_id;not null;uniqueIndex:enderecos_usuario_unique"`
	PostalCode   string    `gorm:"column:cep;size:9;not null"`
	Street       string    `gorm:"column:logradouro;size:100"`
	Number       string    `gorm:"column:numero;size:10"`
	Complement   string    `gorm:"column:complemento;size:50"`
	Neighborhood string    `gorm:"column:bairro;size:50"`
	City         string    `gorm:"column:cidade;size:50"`
	State        string    `gorm:"column:estado;size:2"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (AddressModel) TableName() string {
	return "enderecos"
}

type PreferenceModel struct {
	Id                    uint      `gorm:"primaryKey"`
	UserId                uint      `gorm:"column:usuario_id;not null;uniqueIndex:preferencias_usuario_unique"`
	TruckAlert            bool      `gorm:"column:alerta_caminhao;not null;default:false"`
	EnvironmentalPolicies bool      `gorm:"column:politicas_ambientais;not null;default:false"`
	DisposalTips          bool      `gorm:"column:dicas_descarte;not null;default:false"`
	CreatedAt             time.Time `gorm:"column:created_at"`
	UpdatedAt             time.Time `gorm:"column:updated_at"`
}

func (PreferenceModel) TableName() string {
	return "preferencias_comunicacao"
}

// Models lists every table in dependency order, for AutoMigrate.
func Models() []interface{} {
	return []interface{}{&UserModel{}, &AddressModel{}, &PreferenceModel{}}
}
