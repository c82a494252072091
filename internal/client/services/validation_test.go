package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/cloudkeeper/internal/client/models"
)

func TestValidateRegistration(t *testing.T) {
	valid := models.Registration{Username: "alice1", Password: "Str0ng!pw", Email: "alice.b@mail.example.org", FullName: "Alice"}

	tests := []struct {
		name  string
		edit  func(r *models.Registration)
		field string
	}{
		{name: "valid", edit: func(*models.Registration) {}},
		{name: "username too short", edit: func(r *models.Registration) { r.Username = "abc" }, field: "username"},
		{name: "username too long", edit: func(r *models.Registration) { r.Username = "a12345678901234567890" }, field: "username"},
		{name: "username starts with digit", edit: func(r *models.Registration) { r.Username = "1alice" }, field: "username"},
		{name: "username with underscore", edit: func(r *models.Registration) { r.Username = "ali_ce" }, field: "username"},
		{name: "username non latin", edit: func(r *models.Registration) { r.Username = "алиса" }, field: "username"},
		{name: "email without at", edit: func(r *models.Registration) { r.Email = "alice.example.org" }, field: "email"},
		{name: "email short tld", edit: func(r *models.Registration) { r.Email = "alice@example.o" }, field: "email"},
		{name: "password too short", edit: func(r *models.Registration) { r.Password = "S0!a" }, field: "password"},
		{name: "password without uppercase", edit: func(r *models.Registration) { r.Password = "str0ng!pw" }, field: "password"},
		{name: "password without digit", edit: func(r *models.Registration) { r.Password = "Strong!pw" }, field: "password"},
		{name: "password without symbol", edit: func(r *models.Registration) { r.Password = "Str0ngpw" }, field: "password"},
		{name: "underscore is not a symbol", edit: func(r *models.Registration) { r.Password = "Str0ng_pw" }, field: "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := valid
			tt.edit(&reg)

			err := ValidateRegistration(reg)
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.NotEmpty(t, verr.Message)
		})
	}
}

func TestValidateRegistration_ReportsFirstFailingField(t *testing.T) {
	err := ValidateRegistration(models.Registration{Username: "ok1234", Email: "bad", Password: "weak"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)
}
