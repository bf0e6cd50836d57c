package repository

import (
	"gorm.io/gorm"

	"github.com/lshigami/voicequiz/internal/model"
)

type RatingRepository interface {
	Create(rating *model.Rating) error
	FindByQuestionID(questionID string) ([]model.Rating, error)
	AverageForQuestion(questionID string) (float64, error)
}

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) Create(rating *model.Rating) error {
	return r.db.Create(rating).Error
}

func (r *ratingRepository) FindByQuestionID(questionID string) ([]model.Rating, error) {
	var ratings []model.Rating
	if err := r.db.Where("question_id = ?", questionID).Order("created_at desc").Find(&ratings).Error; err != nil {
		return nil, err
	}
	return ratings, nil
}

func (r *ratingRepository) AverageForQuestion(questionID string) (float64, error) {
	var avg *float64
	err := r.db.Model(&model.Rating{}).Where("question_id = ?", questionID).
		Select("AVG(rating)").Scan(&avg).Error
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}
