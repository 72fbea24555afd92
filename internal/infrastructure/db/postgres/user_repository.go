package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ecodescarte-user-service/internal/apperror"
	"ecodescarte-user-service/internal/domain/entities"
	"ecodescarte-user-service/internal/domain/repositories"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgUniqueViolation = "23505"

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) repositories.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entities.ValidatedUser) (*entities.User, error) {
	userEntity := user.GetUser()

	// Hash password before saving
	if err := userEntity.HashPassword(); err != nil {
		return nil, apperror.Internal(err)
	}

	userModel := toUserModel(userEntity)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkAvailable(tx, userEntity.Email, userEntity.CPF, 0); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(userModel).Error; err != nil {
			return err
		}

		address := toAddressModel(userModel.Id, userEntity.Address)
		preference := toPreferenceModel(userModel.Id, userEntity.Preference)

		writes := newChildWrites(tx)
		writes.Go(func(tx *gorm.DB) error { return tx.Create(address).Error })
		writes.Go(func(tx *gorm.DB) error { return tx.Create(preference).Error })
		return writes.Wait()
	})
	if err != nil {
		return nil, r.translate(ctx, err, userEntity.Email, userEntity.CPF, 0)
	}

	// Read back the created user to ensure data integrity
	return r.FindById(ctx, userModel.Id)
}

func (r *UserRepository) FindById(ctx context.Context, id uint) (*entities.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg interface{}) (*entities.User, error) {
	var userModel UserModel
	err := r.db.WithContext(ctx).
		Preload("Address").
		Preload("Preference").
		Where(query, arg).
		First(&userModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperror.Database(err)
	}

	return mapToEntity(&userModel), nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, user *entities.ValidatedUser) (*entities.User, error) {
	userEntity := user.GetUser()
	now := time.Now()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkAvailable(tx, userEntity.Email, "", userEntity.Id); err != nil {
			return err
		}

		res := tx.Model(&UserModel{}).Where("id = ?", userEntity.Id).Updates(map[string]interface{}{
			"nome_completo":   userEntity.FullName,
			"data_nascimento": userEntity.BirthDate,
			"email":           userEntity.Email,
			"updated_at":      now,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("Usuário não encontrado")
		}

		writes := newChildWrites(tx)
		writes.Go(func(tx *gorm.DB) error { return upsertAddress(tx, userEntity.Id, userEntity.Address, now) })
		writes.Go(func(tx *gorm.DB) error { return upsertPreference(tx, userEntity.Id, userEntity.Preference, now) })
		return writes.Wait()
	})
	if err != nil {
		return nil, r.translate(ctx, err, userEntity.Email, "", userEntity.Id)
	}

	return r.FindById(ctx, userEntity.Id)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", id).Updates(map[string]interface{}{
		"senha":      passwordHash,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return apperror.Database(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("Usuário não encontrado")
	}
	return nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// translate turns a failed transaction into a tagged error. Unique index
// violations are the authoritative duplicate signal; the transaction is gone
// by now, so the colliding column is looked up again.
func (r *UserRepository) translate(ctx context.Context, err error, email, cpf string, exceptID uint) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	if !isUniqueViolation(err) {
		return apperror.Database(err)
	}

	if cerr := checkAvailable(r.db.WithContext(ctx), email, cpf, exceptID); cerr != nil {
		if apperror.Is(cerr, apperror.KindConflict) {
			return cerr
		}
		return apperror.Database(cerr)
	}
	return apperror.Conflict("Dados já cadastrados", apperror.Detail{Field: "usuario", Message: "registro duplicado"})
}

// checkAvailable reports a Conflict when another user already owns email or
// cpf. An empty cpf is not checked.
func checkAvailable(tx *gorm.DB, email, cpf string, exceptID uint) error {
	q := tx.Model(&UserModel{})
	if cpf != "" {
		q = q.Where("email = ? OR cpf = ?", email, cpf)
	} else {
		q = q.Where("email = ?", email)
	}
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}

	var existing UserModel
	err := q.Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if cpf != "" && existing.CPF == cpf {
		return apperror.Conflict("CPF já cadastrado", uniqueDetail("cpf", cpf))
	}
	return apperror.Conflict("Email já cadastrado", uniqueDetail("email", email))
}

func uniqueDetail(field, value string) apperror.Detail {
	return apperror.Detail{Field: field, Message: fmt.Sprintf("O valor '%s' já existe e deve ser único", value)}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// childWrites runs the dependent writes of one transaction. They are issued
// in no particular order; a transaction owns a single connection, so each
// write holds it for the duration of its statement. Wait joins them before
// commit and returns the first failure.
type childWrites struct {
	tx *gorm.DB
	mu sync.Mutex
	g  errgroup.Group
}

func newChildWrites(tx *gorm.DB) *childWrites {
	return &childWrites{tx: tx}
}

func (w *childWrites) Go(fn func(tx *gorm.DB) error) {
	w.g.Go(func() error {
		w.mu.Lock()
		defer w.mu.Unlock()
		return fn(w.tx)
	})
}

func (w *childWrites) Wait() error {
	return w.g.Wait()
}

func upsertAddress(tx *gorm.DB, userID uint, address *entities.Address, now time.Time) error {
	if address == nil {
		return nil
	}
	res := tx.Model(&AddressModel{}).Where("usuario_id = ?", userID).Updates(map[string]interface{}{
		"cep":         address.PostalCode,
		"logradouro":  address.Street,
		"numero":      address.Number,
		"complemento": address.Complement,
		"bairro":      address.Neighborhood,
		"cidade":      address.City,
		"estado":      address.State,
		"updated_at":  now,
	})
	if res.Error != nil || res.RowsAffected > 0 {
		return res.Error
	}
	return tx.Create(toAddressModel(userID, address)).Error
}

func upsertPreference(tx *gorm.DB, userID uint, preference *entities.Preference, now time.Time) error {
	if preference == nil {
		return nil
	}
	res := tx.Model(&PreferenceModel{}).Where("usuario_id = ?", userID).Updates(map[string]interface{}{
		"alerta_caminhao":      preference.TruckAlert,
		"politicas_ambientais": preference.EnvironmentalPolicies,
		"dicas_descarte":       preference.DisposalTips,
		"updated_at":           now,
	})
	if res.Error != nil || res.RowsAffected > 0 {
		return res.Error
	}
	return tx.Create(toPreferenceModel(userID, preference)).Error
}

func toUserModel(u *entities.User) *UserModel {
	return &UserModel{
		Id:        u.Id,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		FullName:  u.FullName,
		CPF:       u.CPF,
		BirthDate: u.BirthDate,
		Email:     u.Email,
		Password:  u.Password,
		Active:    u.Active,
	}
}

func toAddressModel(userID uint, a *entities.Address) *AddressModel {
	if a == nil {
		a = &entities.Address{}
	}
	return &AddressModel{
		UserId:       userID,
		PostalCode:   a.PostalCode,
		Street:       a.Street,
		Number:       a.Number,
		Complement:   a.Complement,
		Neighborhood: a.Neighborhood,
		City:         a.City,
		State:        a.State,
	}
}

func toPreferenceModel(userID uint, p *entities.Preference) *PreferenceModel {
	if p == nil {
		p = &entities.Preference{}
	}
	return &PreferenceModel{
		UserId:                userID,
		TruckAlert:            p.TruckAlert,
		EnvironmentalPolicies: p.EnvironmentalPolicies,
		DisposalTips:          p.DisposalTips,
	}
}

func mapToEntity(userModel *UserModel) *entities.User {
	user := &entities.User{
		Id:        userModel.Id,
		CreatedAt: userModel.CreatedAt,
		UpdatedAt: userModel.UpdatedAt,
		FullName:  userModel.FullName,
		CPF:       userModel.CPF,
		BirthDate: userModel.BirthDate,
		Email:     userModel.Email,
		Password:  userModel.Password,
		Active:    userModel.Active,
	}
	if a := userModel.Address; a != nil {
		user.Address = &entities.Address{
			Id:           a.Id,
			UserId:       a.UserId,
			PostalCode:   a.PostalCode,
			Street:       a.Street,
			Number:       a.Number,
			Complement:   a.Complement,
			Neighborhood: a.Neighborhood,
			City:         a.City,
			State:        a.State,
		}
	}
	if p := userModel.Preference; p != nil {
		user.Preference = &entities.Preference{
			Id:                    p.Id,
			UserId:                p.UserId,
			TruckAlert:            p.TruckAlert,
			EnvironmentalPolicies: p.EnvironmentalPolicies,
			DisposalTips:          p.DisposalTips,
		}
	}
	return user
}
