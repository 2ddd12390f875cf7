package models

import "time"

type AdminSession struct {
	Admin      bool
	LoggedInAt time.Time
}

func (s *AdminSession) IsAdmin() bool {
	return s != nil && s.Admin
}

type FlashMessage struct {
	Message string
	IsError bool
}
