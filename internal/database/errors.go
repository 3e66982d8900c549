package database

import "errors"

var (
	ErrNotFound      = errors.New("enregistrement introuvable")
	ErrAlreadyExists = errors.New("enregistrement déjà existant")
)
