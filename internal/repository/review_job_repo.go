package repository

import (
	"context"
	"time"

	"reviewledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobFilter narrows job listings. Zero fields are ignored; Month needs Year.
type JobFilter struct {
	Search      string
	PayerName   string
	Platform    string
	ContentType string
	Year        int
	Month       int
}

func (f JobFilter) scope(db *gorm.DB) *gorm.DB {
	if f.Search != "" {
		p := likePattern(f.Search)
		db = db.Where("LOWER(title) LIKE ? OR LOWER(CAST(platforms AS TEXT)) LIKE ? OR LOWER(content_type) LIKE ?", p, p, p)
	}
	if f.PayerName != "" {
		db = db.Where("payer_name = ?", f.PayerName)
	}
	if f.Platform != "" {
		// platforms is a JSON array of strings; match one quoted element.
		db = db.Where("CAST(platforms AS TEXT) LIKE ?", `%"`+f.Platform+`"%`)
	}
	if f.ContentType != "" {
		db = db.Where("content_type = ?", f.ContentType)
	}
	if f.Year > 0 {
		from, to := yearRange(f.Year)
		if f.Month >= 1 && f.Month <= 12 {
			from, to = monthRange(f.Year, f.Month)
		}
		db = db.Where("received_date >= ? AND received_date < ?", from, to)
	}
	return db
}

// JobStat is the projection used for platform/payer/month rankings.
type JobStat struct {
	Platforms    []string
	PayerName    string
	ReceivedDate *time.Time
}

type ReviewJobRepository interface {
	Create(ctx context.Context, job *model.ReviewJob) error
	Update(ctx context.Context, job *model.ReviewJob) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ReviewJob, error)
	List(ctx context.Context, filter JobFilter, offset, limit int) ([]model.ReviewJob, int64, error)
	ListRecent(ctx context.Context, limit int) ([]model.ReviewJob, error)
	PayerNames(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) ([]JobStat, error)
}

type reviewJobRepository struct {
	db *gorm.DB
}

func NewReviewJobRepository(db *gorm.DB) ReviewJobRepository {
	return &reviewJobRepository{db: db}
}

func (r *reviewJobRepository) Create(ctx context.Context, job *model.ReviewJob) error {
	return GetDB(ctx, r.db).Create(job).Error
}

func (r *reviewJobRepository) Update(ctx context.Context, job *model.ReviewJob) error {
	return GetDB(ctx, r.db).Save(job).Error
}

func (r *reviewJobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(GetDB(ctx, r.db), &model.ReviewJob{}, id)
}

func (r *reviewJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ReviewJob, error) {
	var job model.ReviewJob
	if err := GetDB(ctx, r.db).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *reviewJobRepository) List(ctx context.Context, filter JobFilter, offset, limit int) ([]model.ReviewJob, int64, error) {
	var jobs []model.ReviewJob
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.ReviewJob{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Model(&model.ReviewJob{}).Scopes(filter.scope).
		Order("received_date DESC").Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&jobs).Error; err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

func (r *reviewJobRepository) ListRecent(ctx context.Context, limit int) ([]model.ReviewJob, error) {
	var jobs []model.ReviewJob
	err := GetDB(ctx, r.db).Order("received_date DESC").Order("created_at DESC").Limit(limit).Find(&jobs).Error
	return jobs, err
}

// PayerNames returns distinct non-empty payer names, sorted.
func (r *reviewJobRepository) PayerNames(ctx context.Context) ([]string, error) {
	var names []string
	err := GetDB(ctx, r.db).Model(&model.ReviewJob{}).
		Where("payer_name <> ''").
		Distinct("payer_name").
		Order("payer_name ASC").
		Pluck("payer_name", &names).Error
	return names, err
}

func (r *reviewJobRepository) Stats(ctx context.Context) ([]JobStat, error) {
	var jobs []model.ReviewJob
	if err := GetDB(ctx, r.db).Select("platforms", "payer_name", "received_date").Find(&jobs).Error; err != nil {
		return nil, err
	}
	stats := make([]JobStat, 0, len(jobs))
	for _, j := range jobs {
		stats = append(stats, JobStat{Platforms: j.Platforms, PayerName: j.PayerName, ReceivedDate: j.ReceivedDate})
	}
	return stats, nil
}

func yearRange(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}

func monthRange(year, month int) (time.Time, time.Time) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}
