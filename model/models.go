package model

// All returns every model managed by AutoMigrate, parents before children
func All() []interface{} {
	return []interface{}{
		&User{},
		&ProfessorStudent{},
		&Subject{},
		&Course{},
		&Submission{},
		&Comment{},
		&UserNotification{},
		&EmailDelivery{},
		&JWTTokenBlacklist{},
		&PasswordResetToken{},
		&CronJobLog{},
		&AdminAuditLog{},
	}
}
