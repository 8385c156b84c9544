package mailer

import "errors"

var (
	ErrTemplateNotFound = errors.New("email template not found")
	ErrEntradaNotFound  = errors.New("entrada not found")
	ErrAsuntoRequerido  = errors.New("subject is required")
)
