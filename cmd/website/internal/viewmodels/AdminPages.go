package viewmodels

import "time"

type AdminLogin struct {
	BaseViewModel
}

type AdminDashboard struct {
	BaseViewModel
	Albums     []string
	LoggedInAt time.Time
}
