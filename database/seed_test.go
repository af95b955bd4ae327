package database_test

import (
	"testing"

	"github.com/sahilchouksey/eduplatform-api/database"
	"github.com/sahilchouksey/eduplatform-api/internal/testutil"
	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/utils/auth"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedAll(t *testing.T) {
	t.Setenv("ADMIN_EMAIL", "root@school.test")
	t.Setenv("ADMIN_PASSWORD", "rootpass1")
	t.Setenv("SEED_PASSWORD", "demo-pass")

	db := testutil.NewDB(t)
	seeder := database.NewSeeder(db, logger.Nop())

	require.NoError(t, seeder.SeedAll())

	var admin model.User
	require.NoError(t, db.Where("role = ?", model.RoleAdmin).First(&admin).Error)
	assert.Equal(t, "root@school.test", admin.Email)
	assert.NoError(t, auth.VerifyPassword(admin.PasswordHash, "rootpass1"))

	var professors, students, links, courses int64
	db.Model(&model.User{}).Where("role = ?", model.RoleProfessor).Count(&professors)
	db.Model(&model.User{}).Where("role = ?", model.RoleStudent).Count(&students)
	db.Model(&model.ProfessorStudent{}).Count(&links)
	db.Model(&model.Course{}).Count(&courses)
	assert.EqualValues(t, 2, professors)
	assert.EqualValues(t, 4, students)
	assert.EqualValues(t, 4, links, "every demo student has a professor")
	assert.NotZero(t, courses)

	var ada model.User
	require.NoError(t, db.Where("email = ?", "ada@eduplatform.app").First(&ada).Error)
	assert.NoError(t, auth.VerifyPassword(ada.PasswordHash, "demo-pass"))

	// A second run changes nothing
	require.NoError(t, seeder.SeedAll())
	var after int64
	db.Model(&model.Course{}).Count(&after)
	assert.Equal(t, courses, after)
	db.Model(&model.User{}).Count(&after)
	assert.EqualValues(t, 7, after)
}
