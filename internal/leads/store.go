package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hugh/lead-hunter/internal/database/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("lead not found")
	ErrDuplicate = errors.New("lead with this email already exists")
)

// streamBatchSize bounds how many rows Stream holds at once.
const streamBatchSize = 500

// Store is the owner-scoped persistence contract for leads. Every method
// constrains on the owner; a row belonging to someone else behaves as absent.
type Store interface {
	CountAndFetch(ctx context.Context, owner uint, filter Filter, page Page) ([]models.Lead, int64, error)
	Get(ctx context.Context, id, owner uint) (*models.Lead, error)
	Insert(ctx context.Context, owner uint, lead *models.Lead) error
	BulkInsert(ctx context.Context, owner uint, leads []models.Lead) ([]models.Lead, error)
	UpdateByIDAndOwner(ctx context.Context, id, owner uint, patch map[string]interface{}) (*models.Lead, error)
	DeleteByIDAndOwner(ctx context.Context, id, owner uint) error
	DeleteManyByIDsAndOwner(ctx context.Context, ids []uint, owner uint) (int64, error)
	Stream(ctx context.Context, owner uint, filter Filter, fn func([]models.Lead) error) error
}

type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) owned(ctx context.Context, owner uint) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Lead{}).Where("user_id = ?", owner)
}

// CountAndFetch returns one page of the owner's leads matching filter plus
// the total number of matches.
func (s *GormStore) CountAndFetch(ctx context.Context, owner uint, filter Filter, page Page) ([]models.Lead, int64, error) {
	var total int64
	if err := filter.Apply(s.owned(ctx, owner)).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting leads: %w", err)
	}

	rows := []models.Lead{}
	if total == 0 || int64(page.Offset()) >= total {
		return rows, total, nil
	}

	if err := filter.Apply(s.owned(ctx, owner)).
		Order("created_at DESC").
		Order("id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("fetching leads: %w", err)
	}

	return rows, total, nil
}

func (s *GormStore) Get(ctx context.Context, id, owner uint) (*models.Lead, error) {
	var lead models.Lead
	if err := s.owned(ctx, owner).Where("id = ?", id).First(&lead).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting lead: %w", err)
	}
	return &lead, nil
}

func (s *GormStore) Insert(ctx context.Context, owner uint, lead *models.Lead) error {
	prepare(lead, owner)
	if err := s.db.WithContext(ctx).Create(lead).Error; err != nil {
		return translate("creating lead", err)
	}
	return nil
}

// BulkInsert writes every lead or none of them.
func (s *GormStore) BulkInsert(ctx context.Context, owner uint, leads []models.Lead) ([]models.Lead, error) {
	if len(leads) == 0 {
		return []models.Lead{}, nil
	}

	out := make([]models.Lead, len(leads))
	copy(out, leads)
	for i := range out {
		prepare(&out[i], owner)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&out, 100).Error
	})
	if err != nil {
		return nil, translate("bulk creating leads", err)
	}

	return out, nil
}

// UpdateByIDAndOwner applies patch to the lead. Identity and ownership columns
// in patch are ignored.
func (s *GormStore) UpdateByIDAndOwner(ctx context.Context, id, owner uint, patch map[string]interface{}) (*models.Lead, error) {
	lead, err := s.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	for _, immutable := range []string{"id", "user_id", "created_at", "updated_at"} {
		delete(patch, immutable)
	}
	if len(patch) == 0 {
		return lead, nil
	}

	if err := s.owned(ctx, owner).Where("id = ?", id).Updates(patch).Error; err != nil {
		return nil, translate("updating lead", err)
	}

	return s.Get(ctx, id, owner)
}

func (s *GormStore) DeleteByIDAndOwner(ctx context.Context, id, owner uint) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, owner).Delete(&models.Lead{})
	if result.Error != nil {
		return fmt.Errorf("deleting lead: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteManyByIDsAndOwner deletes the owner's leads among ids and reports how
// many were removed. Ids owned by others are silently skipped.
func (s *GormStore) DeleteManyByIDsAndOwner(ctx context.Context, ids []uint, owner uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Where("user_id = ? AND id IN ?", owner, ids).Delete(&models.Lead{})
	if result.Error != nil {
		return 0, fmt.Errorf("deleting leads: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Stream walks every matching lead in id order, streamBatchSize rows at a time.
func (s *GormStore) Stream(ctx context.Context, owner uint, filter Filter, fn func([]models.Lead) error) error {
	var batch []models.Lead
	var cbErr error
	result := filter.Apply(s.owned(ctx, owner)).FindInBatches(&batch, streamBatchSize, func(tx *gorm.DB, _ int) error {
		if err := ctx.Err(); err != nil {
			cbErr = err
			return err
		}
		if err := fn(batch); err != nil {
			cbErr = err
			return err
		}
		return nil
	})
	if cbErr != nil {
		return cbErr
	}
	if result.Error != nil {
		return fmt.Errorf("streaming leads: %w", result.Error)
	}
	return nil
}

func prepare(lead *models.Lead, owner uint) {
	lead.ID = 0
	lead.UserID = owner
	lead.ApplyDefaults()
}

func translate(op string, err error) error {
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
