package mocks

import (
	"furitingoasis/irrigation/website/internal/models"
)

type UserModel struct{}

func (m *UserModel) Insert(name, email, password string, admin bool) error {
	switch email {
	case "dupe@example.com":
		return models.ErrDuplicateEmail
	default:
		return nil
	}
}

func (m *UserModel) Authenticate(email, password string) (int, error) {
	if email == "alice@example.com" && password == "pa$$word" {
		return 1, nil
	}
	return 0, models.ErrInvalidCredentials
}

func (m *UserModel) Exists(id int) (bool, error) {
	switch id {
	case 1:
		return true, nil
	default:
		return false, nil
	}
}

func (m *UserModel) AdminExists() (bool, error) {
	return true, nil
}
