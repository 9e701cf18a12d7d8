package main

import (
	"errors"
	"fmt"
	"os"

	"greencycle/internal/model"
	"greencycle/internal/repository"
	"greencycle/pkg/logger"

	"gorm.io/gorm"
)

const (
	defaultAdminEmail    = "admin@greencycle.local"
	defaultAdminPassword = "admin123"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// seedDefaults creates default privileges, roles and the first partner account
// when they don't exist yet. Roles that already carry privileges are left alone.
func seedDefaults(privilegeRepo repository.PrivilegeRepository, roleRepo repository.RoleRepository, userRepo repository.UserRepository) error {
	log := logger.Get()

	if err := privilegeRepo.SeedDefaults(); err != nil {
		return fmt.Errorf("seed privileges: %w", err)
	}
	if err := roleRepo.SeedDefaults(); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	allPrivileges, err := privilegeRepo.FindAll()
	if err != nil {
		return fmt.Errorf("load privileges: %w", err)
	}

	for _, def := range model.DefaultRoles {
		role, err := roleRepo.FindByCode(def.Code)
		if err != nil {
			return fmt.Errorf("load role %s: %w", def.Code, err)
		}
		if len(role.Privileges) > 0 {
			continue
		}
		grants := model.PrivilegesForRole(role.Code, allPrivileges)
		if err := roleRepo.ReplacePrivileges(role, grants); err != nil {
			return fmt.Errorf("grant role %s: %w", role.Code, err)
		}
		log.WithField("role", role.Code).Infof("role assigned %d privileges", len(grants))
	}

	email := envOr("ADMIN_EMAIL", defaultAdminEmail)
	if _, err := userRepo.FindByEmail(email); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}

	partnerRole, err := roleRepo.FindByCode(model.RoleSuperAdmin)
	if err != nil {
		return fmt.Errorf("load partner role: %w", err)
	}

	admin := &model.User{
		Email:      email,
		FullName:   "Founding Partner",
		RoleID:     &partnerRole.ID,
		IsActive:   true,
		Privileges: partnerRole.Privileges,
	}
	admin.Stamp(model.SystemActor.UserID)
	if err := admin.SetPassword(envOr("ADMIN_PASSWORD", defaultAdminPassword)); err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := userRepo.Create(admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	log.WithField("email", email).Info("admin partner created")
	return nil
}
