package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/curepoint/pharmacy/internal/models"
	"github.com/curepoint/pharmacy/internal/repo"
	"github.com/curepoint/pharmacy/internal/transport"
)

type BranchService struct {
	Repo *repo.GormRepo
}

func (s *BranchService) List(ctx context.Context) ([]models.Branch, error) {
	return s.Repo.ListBranches(ctx)
}

func (s *BranchService) Create(ctx context.Context, req transport.CreateBranchRequest) (*models.Branch, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name required: %w", ErrValidation)
	}
	b := &models.Branch{
		Name:           name,
		Location:       strings.TrimSpace(req.Location),
		ManagerContact: strings.TrimSpace(req.ManagerContact),
	}
	if err := s.Repo.CreateBranch(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}
