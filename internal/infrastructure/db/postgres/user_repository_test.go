package postgres

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"ecodescarte-user-service/internal/apperror"
	"ecodescarte-user-service/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(Models()...))
	return gdb
}

func validUser(t *testing.T, email, cpf string) *entities.ValidatedUser {
	t.Helper()
	u := entities.NewUser("Maria Silva", cpf, time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC), email, "segredo")
	u.Address = entities.NewAddress("01001-000", "Praça da Sé", "1", "apto 2", "Sé", "São Paulo", "SP")
	u.Preference = entities.NewPreference(true, false, true)
	vu, err := entities.NewValidatedUser(u)
	require.NoError(t, err)
	return vu
}

func TestCreatePersistsUserAddressAndPreference(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, validUser(t, "maria@example.com", "123.456.789-00"))
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.NotZero(t, created.Id)
	assert.Equal(t, "12345678900", created.CPF)
	assert.True(t, created.Active)
	assert.NotEqual(t, "segredo", created.Password)
	assert.NoError(t, created.CheckPassword("segredo"))

	require.NotNil(t, created.Address)
	assert.Equal(t, "01001-000", created.Address.PostalCode)
	assert.Equal(t, created.Id, created.Address.UserId)
	require.NotNil(t, created.Preference)
	assert.True(t, created.Preference.TruckAlert)
	assert.False(t, created.Preference.EnvironmentalPolicies)
	assert.True(t, created.Preference.DisposalTips)
	assert.Equal(t, 1990, created.BirthDate.Year())
}

func TestCreateDuplicateEmailIsConflict(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, validUser(t, "maria@example.com", "12345678900"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, validUser(t, "maria@example.com", "98765432100"))
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindConflict, ae.Kind)
	assert.Equal(t, "Email já cadastrado", ae.Message)
	require.Len(t, ae.Details, 1)
	assert.Equal(t, "email", ae.Details[0].Field)
	assert.Equal(t, "O valor 'maria@example.com' já existe e deve ser único", ae.Details[0].Message)
}

func TestCreateDuplicateCPFIsConflict(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, validUser(t, "maria@example.com", "123.456.789-00"))
	require.NoError(t, err)

	// Same CPF written with different punctuation still collides.
	_, err = repo.Create(ctx, validUser(t, "joao@example.com", "123 456 789 00"))
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindConflict, ae.Kind)
	assert.Equal(t, "CPF já cadastrado", ae.Message)
	assert.Equal(t, "cpf", ae.Details[0].Field)
}

func TestCreateRollsBackWhenChildWriteFails(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewUserRepository(gdb)
	require.NoError(t, gdb.Migrator().DropTable(&PreferenceModel{}))

	_, err := repo.Create(context.Background(), validUser(t, "maria@example.com", "12345678900"))
	assert.True(t, apperror.Is(err, apperror.KindDatabase))

	var users, addresses int64
	require.NoError(t, gdb.Model(&UserModel{}).Count(&users).Error)
	require.NoError(t, gdb.Model(&AddressModel{}).Count(&addresses).Error)
	assert.Zero(t, users)
	assert.Zero(t, addresses)
}

func TestConcurrentRegistrationsOnlyOneSucceeds(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	const n = 4
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Create(ctx, validUser(t, "maria@example.com", fmt.Sprintf("1234567890%d", i)))
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperror.Is(err, apperror.KindConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func TestTranslateUniqueViolation(t *testing.T) {
	gdb := newTestDB(t)
	repo := &UserRepository{db: gdb}

	first := &UserModel{FullName: "A", CPF: "12345678900", BirthDate: time.Now(), Email: "a@example.com", Password: "x"}
	require.NoError(t, gdb.Create(first).Error)

	// Bypass the pre-check so the index reports the duplicate.
	err := gdb.Create(&UserModel{FullName: "B", CPF: "12345678900", BirthDate: time.Now(), Email: "b@example.com", Password: "x"}).Error
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))

	translated := repo.translate(context.Background(), err, "b@example.com", "12345678900", 0)
	ae, ok := apperror.As(translated)
	require.True(t, ok)
	assert.Equal(t, apperror.KindConflict, ae.Kind)
	assert.Equal(t, "CPF já cadastrado", ae.Message)
}

func TestFindByEmailUnknownReturnsNil(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	user, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, user)

	user, err = repo.FindById(context.Background(), 42)
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestUpdateProfileWritesAllTables(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, validUser(t, "maria@example.com", "12345678900"))
	require.NoError(t, err)

	vu, err := entities.NewValidatedUser(created)
	require.NoError(t, err)
	require.NoError(t, vu.UpdateProfile("Maria Souza", time.Date(1991, 1, 2, 0, 0, 0, 0, time.UTC), "souza@example.com"))
	vu.Address = entities.NewAddress("20040-020", "Av. Rio Branco", "100", "", "Centro", "Rio de Janeiro", "RJ")
	vu.Preference = entities.NewPreference(false, true, false)

	updated, err := repo.UpdateProfile(ctx, vu)
	require.NoError(t, err)

	assert.Equal(t, "Maria Souza", updated.FullName)
	assert.Equal(t, "souza@example.com", updated.Email)
	assert.Equal(t, 1991, updated.BirthDate.Year())
	assert.Equal(t, "RJ", updated.Address.State)
	assert.Equal(t, "", updated.Address.Complement)
	assert.False(t, updated.Preference.TruckAlert)
	assert.True(t, updated.Preference.EnvironmentalPolicies)
	assert.False(t, updated.Preference.DisposalTips)
}

func TestUpdateProfileCreatesMissingChildRows(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewUserRepository(gdb)
	ctx := context.Background()

	created, err := repo.Create(ctx, validUser(t, "maria@example.com", "12345678900"))
	require.NoError(t, err)
	require.NoError(t, gdb.Where("usuario_id = ?", created.Id).Delete(&AddressModel{}).Error)
	require.NoError(t, gdb.Where("usuario_id = ?", created.Id).Delete(&PreferenceModel{}).Error)

	vu, err := entities.NewValidatedUser(created)
	require.NoError(t, err)
	vu.Address = entities.NewAddress("01001-000", "", "", "", "", "", "")
	vu.Preference = entities.NewPreference(true, true, true)

	updated, err := repo.UpdateProfile(ctx, vu)
	require.NoError(t, err)
	require.NotNil(t, updated.Address)
	require.NotNil(t, updated.Preference)
	assert.Equal(t, "01001-000", updated.Address.PostalCode)
	assert.True(t, updated.Preference.EnvironmentalPolicies)
}

func TestUpdateProfileEmailTakenByAnotherUser(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, validUser(t, "maria@example.com", "12345678900"))
	require.NoError(t, err)
	joao, err := repo.Create(ctx, validUser(t, "joao@example.com", "98765432100"))
	require.NoError(t, err)

	vu, err := entities.NewValidatedUser(joao)
	require.NoError(t, err)
	require.NoError(t, vu.UpdateProfile(joao.FullName, joao.BirthDate, "maria@example.com"))

	_, err = repo.UpdateProfile(ctx, vu)
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindConflict, ae.Kind)
	assert.Equal(t, "Email já cadastrado", ae.Message)

	unchanged, err := repo.FindById(ctx, joao.Id)
	require.NoError(t, err)
	assert.Equal(t, "joao@example.com", unchanged.Email)
}

func TestUpdateProfileKeepsOwnEmail(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, validUser(t, "maria@example.com", "12345678900"))
	require.NoError(t, err)

	vu, err := entities.NewValidatedUser(created)
	require.NoError(t, err)
	require.NoError(t, vu.UpdateProfile("Maria S.", created.BirthDate, created.Email))

	updated, err := repo.UpdateProfile(ctx, vu)
	require.NoError(t, err)
	assert.Equal(t, "Maria S.", updated.FullName)
}

func TestUpdatePassword(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, validUser(t, "maria@example.com", "12345678900"))
	require.NoError(t, err)
	require.NoError(t, created.SetPassword("nova-senha"))

	require.NoError(t, repo.UpdatePassword(ctx, created.Id, created.Password))

	reloaded, err := repo.FindByEmail(ctx, "maria@example.com")
	require.NoError(t, err)
	assert.NoError(t, reloaded.CheckPassword("nova-senha"))

	err = repo.UpdatePassword(ctx, 999, created.Password)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestPing(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	assert.NoError(t, repo.Ping(context.Background()))
}
