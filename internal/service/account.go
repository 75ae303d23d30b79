package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"github.com/curepoint/pharmacy/internal/models"
	"github.com/curepoint/pharmacy/internal/repo"
	"github.com/curepoint/pharmacy/internal/session"
	"github.com/curepoint/pharmacy/internal/transport"
	"github.com/curepoint/pharmacy/pkg/hash"
	"gorm.io/gorm"
)

type AccountService struct {
	Repo *repo.GormRepo
}

func (s *AccountService) Signup(ctx context.Context, name, contact, email, password string) (*models.Customer, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, fmt.Errorf("name required: %w", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", ErrValidation)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("password must have at least 6 characters: %w", ErrValidation)
	}

	if _, err := s.Repo.CustomerByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pw, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	c := &models.Customer{
		Name:         name,
		Contact:      strings.TrimSpace(contact),
		Email:        email,
		PasswordHash: pw,
	}
	if err := s.Repo.CreateCustomer(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

const (
	employeeIDDigits = 7
	minPINLength     = 4
)

// EmployeeSignup registers an employee whose id is the first seven digits of
// the contact number. With asAdmin only the Admin and Branch Manager
// designations are accepted and the branch may be left out.
func (s *AccountService) EmployeeSignup(ctx context.Context, req transport.EmployeeSignupRequest, asAdmin bool) (*models.Employee, error) {
	name := strings.TrimSpace(req.Name)
	contact := strings.TrimSpace(req.Contact)
	if name == "" {
		return nil, fmt.Errorf("name required: %w", ErrValidation)
	}
	if len(contact) < employeeIDDigits || strings.Trim(contact, "0123456789") != "" {
		return nil, fmt.Errorf("contact must be at least %d digits: %w", employeeIDDigits, ErrValidation)
	}
	if len(req.PIN) < minPINLength {
		return nil, fmt.Errorf("pin must have at least %d characters: %w", minPINLength, ErrValidation)
	}

	designation := strings.TrimSpace(req.Designation)
	if designation == "" {
		designation = models.DesignationStaff
		if asAdmin {
			designation = models.DesignationAdmin
		}
	}
	e := &models.Employee{Name: name, Contact: contact, Designation: designation, BranchID: req.BranchID}
	switch {
	case designation != models.DesignationStaff && !e.IsAdmin():
		return nil, fmt.Errorf("unknown designation %q: %w", designation, ErrValidation)
	case asAdmin && !e.IsAdmin():
		return nil, fmt.Errorf("designation must be %s or %s: %w", models.DesignationAdmin, models.DesignationBranchManager, ErrValidation)
	case !asAdmin && req.BranchID == 0:
		return nil, fmt.Errorf("branch required: %w", ErrValidation)
	}
	if req.BranchID != 0 {
		if _, err := s.Repo.GetBranch(ctx, req.BranchID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("branch %d does not exist: %w", req.BranchID, ErrValidation)
			}
			return nil, err
		}
	}

	id, err := strconv.ParseUint(contact[:employeeIDDigits], 10, 64)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("contact does not yield an employee id: %w", ErrValidation)
	}
	e.ID = uint(id)

	e.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if e.Email == "" {
		e.Email = fmt.Sprintf("%d@curepoint.com", e.ID)
	} else if _, err := mail.ParseAddress(e.Email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", ErrValidation)
	}

	exists, err := s.Repo.EmployeeExists(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("employee %d already registered: %w", e.ID, ErrConflict)
	}

	if e.PinHash, err = hash.HashPassword(req.PIN); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateEmployee(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *AccountService) CustomerLogin(ctx context.Context, email, password string) (session.Identity, error) {
	c, err := s.Repo.CustomerByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return session.Identity{}, ErrInvalidCredentials
		}
		return session.Identity{}, err
	}
	if !hash.CheckPassword(c.PasswordHash, password) {
		return session.Identity{}, ErrInvalidCredentials
	}
	return session.Identity{UserID: c.ID, DisplayName: c.Name, Role: session.RoleCustomer}, nil
}

func (s *AccountService) EmployeeLogin(ctx context.Context, employeeID uint, pin string) (session.Identity, error) {
	e, err := s.checkEmployee(ctx, employeeID, pin)
	if err != nil {
		return session.Identity{}, err
	}
	return session.Identity{UserID: e.ID, DisplayName: e.Name, Role: session.RoleEmployee}, nil
}

// AdminLogin accepts employees designated Admin or Branch Manager.
func (s *AccountService) AdminLogin(ctx context.Context, employeeID uint, pin string) (session.Identity, error) {
	e, err := s.checkEmployee(ctx, employeeID, pin)
	if err != nil {
		return session.Identity{}, err
	}
	if !e.IsAdmin() {
		return session.Identity{}, ErrInvalidCredentials
	}
	return session.Identity{UserID: e.ID, DisplayName: e.Name, Role: session.RoleAdmin}, nil
}

func (s *AccountService) checkEmployee(ctx context.Context, employeeID uint, pin string) (*models.Employee, error) {
	if employeeID == 0 || pin == "" {
		return nil, ErrInvalidCredentials
	}
	e, err := s.Repo.EmployeeByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(e.PinHash, pin) {
		return nil, ErrInvalidCredentials
	}
	return e, nil
}
