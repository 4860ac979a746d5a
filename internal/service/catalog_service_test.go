package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasnet/linetrack-api/internal/dto"
	"github.com/atlasnet/linetrack-api/internal/models"
)

type lineTypeStoreStub struct {
	created   *models.LineType
	existing  *models.LineType
	getErr    error
	listResp  []models.LineType
	deleteErr error
}

func (s *lineTypeStoreStub) Create(ctx context.Context, lineType *models.LineType) error {
	lineType.ID = 1
	s.created = lineType
	return nil
}

func (s *lineTypeStoreStub) GetByCode(ctx context.Context, code string) (*models.LineType, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.existing, nil
}

func (s *lineTypeStoreStub) List(ctx context.Context) ([]models.LineType, error) {
	return s.listResp, nil
}

func (s *lineTypeStoreStub) UpdateTitle(ctx context.Context, id int64, title string) (*models.LineType, error) {
	return &models.LineType{ID: id, Code: "VOIP", Title: title}, nil
}

func (s *lineTypeStoreStub) Delete(ctx context.Context, id int64) error {
	return s.deleteErr
}

type subsidiaryStoreStub struct {
	listResp []models.Subsidiary
}

func (s *subsidiaryStoreStub) Create(ctx context.Context, subsidiary *models.Subsidiary) error {
	subsidiary.ID = 3
	return nil
}

func (s *subsidiaryStoreStub) GetByID(ctx context.Context, id int64) (*models.Subsidiary, error) {
	return &models.Subsidiary{ID: id, Name: "North"}, nil
}

func (s *subsidiaryStoreStub) List(ctx context.Context) ([]models.Subsidiary, error) {
	return s.listResp, nil
}

type userStoreStub struct {
	listResp []models.User
	lastRole models.UserRole
}

func (s *userStoreStub) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return &models.User{ID: id, Role: models.RoleAdmin}, nil
}

func (s *userStoreStub) List(ctx context.Context, role models.UserRole) ([]models.User, error) {
	s.lastRole = role
	return s.listResp, nil
}

func newCatalogService(types *lineTypeStoreStub) *CatalogService {
	return NewCatalogService(types, &subsidiaryStoreStub{}, &userStoreStub{}, nil, nil)
}

func TestCatalogServiceCreateLineTypeUppercasesCode(t *testing.T) {
	types := &lineTypeStoreStub{getErr: sql.ErrNoRows}
	svc := newCatalogService(types)

	lineType, err := svc.CreateLineType(context.Background(), dto.CreateLineTypeRequest{Code: " voip ", Title: "Voice over IP"})
	require.NoError(t, err)
	assert.Equal(t, "VOIP", lineType.Code)
}

func TestCatalogServiceCreateLineTypeDuplicate(t *testing.T) {
	types := &lineTypeStoreStub{existing: &models.LineType{ID: 1, Code: "VOIP"}}
	svc := newCatalogService(types)

	_, err := svc.CreateLineType(context.Background(), dto.CreateLineTypeRequest{Code: "VOIP", Title: "Voice over IP"})
	require.Error(t, err)
	assert.Equal(t, 409, statusOf(t, err))
}

func TestCatalogServiceUpdateLineTypeRequiresTitle(t *testing.T) {
	svc := newCatalogService(&lineTypeStoreStub{})

	_, err := svc.UpdateLineType(context.Background(), 1, dto.UpdateLineTypeRequest{Title: "  "})
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))
}

func TestCatalogServiceDeleteLineTypeMissing(t *testing.T) {
	svc := newCatalogService(&lineTypeStoreStub{deleteErr: sql.ErrNoRows})

	err := svc.DeleteLineType(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, 404, statusOf(t, err))
}

func TestCatalogServiceListUsersByRole(t *testing.T) {
	users := &userStoreStub{listResp: []models.User{{ID: 5, Role: models.RoleMaintenance}}}
	svc := NewCatalogService(&lineTypeStoreStub{}, &subsidiaryStoreStub{}, users, nil, nil)

	result, err := svc.ListUsers(context.Background(), models.RoleMaintenance)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, models.RoleMaintenance, users.lastRole)
}
