package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog_media_service/internal/media/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VideoRepo gorm VideoGateway, 多了 AutoMigrate
type VideoRepo interface {
	VideoGateway
	AutoMigrate() error
}

// VideoEntity videos table
type VideoEntity struct {
	ID          string `gorm:"primaryKey;size:64"`
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Medias      []VideoMediaEntity `gorm:"foreignKey:VideoID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName gorm table name
func (VideoEntity) TableName() string { return "videos" }

// VideoMediaEntity video_media table, one row per occupied slot
type VideoMediaEntity struct {
	VideoID         string `gorm:"primaryKey;size:64"`
	MediaType       string `gorm:"primaryKey;size:32"`
	AssetID         string `gorm:"size:64;index"`
	Checksum        string `gorm:"size:64"`
	Name            string
	RawLocation     string
	EncodedLocation string
	Status          string `gorm:"size:16"` // image 為空字串
}

// TableName gorm table name
func (VideoMediaEntity) TableName() string { return "video_media" }

type videoRepo struct {
	db *gorm.DB
}

// NewVideoRepo create VideoRepo
func NewVideoRepo(db *gorm.DB) VideoRepo {
	return &videoRepo{db: db}
}

func (r *videoRepo) AutoMigrate() error {
	return r.db.AutoMigrate(&VideoEntity{}, &VideoMediaEntity{})
}

// FindByID get video with medias, 找不到回傳 domain.ErrVideoNotFound
func (r *videoRepo) FindByID(ctx context.Context, id string) (*domain.Video, error) {
	var e VideoEntity
	if err := r.db.WithContext(ctx).Preload("Medias").First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrVideoNotFound
		}
		return nil, err
	}
	return toDomain(e)
}

// Save 整個 aggregate 在同一個 transaction 內覆寫, slot 被替換時舊的 row 一併移除
func (r *videoRepo) Save(ctx context.Context, video *domain.Video) error {
	e := toEntity(video)
	medias := e.Medias
	e.Medias = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Omit(clause.Associations).Create(&e).Error; err != nil {
			return fmt.Errorf("upsert video: %w", err)
		}
		if err := tx.Where("video_id = ?", e.ID).Delete(&VideoMediaEntity{}).Error; err != nil {
			return fmt.Errorf("delete video media: %w", err)
		}
		if len(medias) == 0 {
			return nil
		}
		if err := tx.Create(&medias).Error; err != nil {
			return fmt.Errorf("insert video media: %w", err)
		}
		return nil
	})
}

// DeleteByID 不存在時不回傳錯誤
func (r *videoRepo) DeleteByID(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", id).Delete(&VideoMediaEntity{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&VideoEntity{}).Error
	})
}

func toEntity(v *domain.Video) VideoEntity {
	e := VideoEntity{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}

	for _, t := range domain.AudioVideoMediaTypes {
		if m, ok := v.AudioVideo(t); ok {
			e.Medias = append(e.Medias, VideoMediaEntity{
				VideoID:         v.ID,
				MediaType:       string(t),
				AssetID:         m.ID,
				Checksum:        m.Checksum,
				Name:            m.Name,
				RawLocation:     m.RawLocation,
				EncodedLocation: m.EncodedLocation,
				Status:          string(m.Status),
			})
		}
	}
	for _, t := range domain.ImageMediaTypes {
		if m, ok := v.Image(t); ok {
			e.Medias = append(e.Medias, VideoMediaEntity{
				VideoID:     v.ID,
				MediaType:   string(t),
				AssetID:     m.ID,
				Checksum:    m.Checksum,
				Name:        m.Name,
				RawLocation: m.Location,
			})
		}
	}
	return e
}

func toDomain(e VideoEntity) (*domain.Video, error) {
	v := domain.NewVideo(e.ID, e.Title, e.Description)

	for _, row := range e.Medias {
		t, err := domain.ParseVideoMediaType(row.MediaType)
		if err != nil {
			return nil, fmt.Errorf("video[%s]: %w", e.ID, err)
		}

		if t.IsAudioVideo() {
			m := domain.AudioVideoMedia{
				ID:              row.AssetID,
				Checksum:        row.Checksum,
				Name:            row.Name,
				RawLocation:     row.RawLocation,
				EncodedLocation: row.EncodedLocation,
				Status:          domain.MediaStatus(row.Status),
			}
			if err := m.Validate(); err != nil {
				return nil, fmt.Errorf("video[%s]: %w", e.ID, err)
			}
			if _, err := v.SetAudioVideo(t, m); err != nil {
				return nil, err
			}
			continue
		}

		if _, err := v.SetImage(t, domain.NewImageMedia(row.AssetID, row.Checksum, row.Name, row.RawLocation)); err != nil {
			return nil, err
		}
	}

	// Set* 會更新 UpdatedAt, 載入時還原
	v.CreatedAt = e.CreatedAt
	v.UpdatedAt = e.UpdatedAt
	return v, nil
}
