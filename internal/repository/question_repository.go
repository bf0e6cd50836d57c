package repository

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lshigami/voicequiz/internal/model"
)

// ErrNoQuestion is returned when no question satisfies the query even after
// every permitted relaxation step.
var ErrNoQuestion = errors.New("no question available")

// NextQuestionQuery is the retrieval contract against the question corpus.
// ExcludeIDs is a hard constraint and is never relaxed; the other filters
// are relaxed progressively by Next.
type NextQuestionQuery struct {
	ExcludeIDs      []string
	Difficulty      model.Difficulty
	PreferredTopics []string
	ExcludedTopics  []string
	Category        string
	Type            string
}

type QuestionRepository interface {
	Create(question *model.Question) error
	FindByID(id string) (*model.Question, error)
	FindAll(reviewStatus string) ([]model.Question, error)
	Update(question *model.Question) error
	Delete(id string) error
	SetReviewStatus(id string, status string) error
	IncrementUsage(id string) error
	Count() (int64, error)
	// Next selects one approved question for the query, relaxing constraints
	// in order: excluded topics, then difficulty (nearest neighbours on the
	// ordered scale). Preferred topics only boost ranking, never filter.
	Next(q NextQuestionQuery) (*model.Question, error)
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(question *model.Question) error {
	return r.db.Create(question).Error
}

func (r *questionRepository) FindByID(id string) (*model.Question, error) {
	var question model.Question
	if err := r.db.First(&question, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepository) FindAll(reviewStatus string) ([]model.Question, error) {
	var questions []model.Question
	tx := r.db.Order("created_at desc")
	if reviewStatus != "" {
		tx = tx.Where("review_status = ?", reviewStatus)
	}
	if err := tx.Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepository) Update(question *model.Question) error {
	return r.db.Save(question).Error
}

func (r *questionRepository) Delete(id string) error {
	return r.db.Delete(&model.Question{}, "id = ?", id).Error
}

func (r *questionRepository) SetReviewStatus(id string, status string) error {
	res := r.db.Model(&model.Question{}).Where("id = ?", id).Update("review_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *questionRepository) IncrementUsage(id string) error {
	return r.db.Model(&model.Question{}).Where("id = ?", id).
		Update("usage_count", gorm.Expr("usage_count + 1")).Error
}

func (r *questionRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&model.Question{}).Where("review_status = ?", model.ReviewStatusApproved).Count(&n).Error
	return n, err
}

func (r *questionRepository) Next(q NextQuestionQuery) (*model.Question, error) {
	// Relaxation ladder. Asked-question exclusion survives every step.
	attempts := []NextQuestionQuery{
		q,
		{ExcludeIDs: q.ExcludeIDs, Difficulty: q.Difficulty, PreferredTopics: q.PreferredTopics, Category: q.Category, Type: q.Type},
	}
	for _, d := range nearestDifficulties(q.Difficulty) {
		attempts = append(attempts, NextQuestionQuery{
			ExcludeIDs: q.ExcludeIDs, Difficulty: d, Category: q.Category, Type: q.Type,
		})
	}

	for i, attempt := range attempts {
		question, err := r.selectOne(attempt)
		if err == nil {
			if i > 0 {
				log.Debug().Int("relaxation_step", i).Str("question_id", question.ID).Msg("Question selected after relaxing filters")
			}
			return question, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("question query failed: %w", err)
		}
	}
	return nil, ErrNoQuestion
}

// buildQuery translates one relaxation attempt into a gorm query. The
// preferred-topic boost must go through Clauses: Order only accepts columns
// and silently drops arbitrary expressions. RANDOM() lives inside the same
// clause because a later Order call would replace the expression on merge.
func (r *questionRepository) buildQuery(q NextQuestionQuery) *gorm.DB {
	tx := r.db.Model(&model.Question{}).Where("review_status = ?", model.ReviewStatusApproved)
	if len(q.ExcludeIDs) > 0 {
		tx = tx.Where("id NOT IN ?", q.ExcludeIDs)
	}
	if q.Difficulty != "" {
		tx = tx.Where("difficulty = ?", q.Difficulty)
	}
	if len(q.ExcludedTopics) > 0 {
		tx = tx.Where("topic NOT IN ?", q.ExcludedTopics)
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.Type != "" {
		tx = tx.Where("type = ?", q.Type)
	}

	// Preferred topics rank first but never exclude anything.
	if len(q.PreferredTopics) > 0 {
		return tx.Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:  "CASE WHEN topic IN ? THEN 0 ELSE 1 END, RANDOM()",
			Vars: []interface{}{q.PreferredTopics},
		}})
	}
	return tx.Order("RANDOM()")
}

func (r *questionRepository) selectOne(q NextQuestionQuery) (*model.Question, error) {
	var question model.Question
	// Take, not First: First orders by primary key and that would override
	// the boost expression.
	if err := r.buildQuery(q).Take(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

// nearestDifficulties returns the other levels ordered by closeness on the
// easy < medium < hard scale.
func nearestDifficulties(d model.Difficulty) []model.Difficulty {
	switch d {
	case model.DifficultyEasy:
		return []model.Difficulty{model.DifficultyMedium, model.DifficultyHard}
	case model.DifficultyHard:
		return []model.Difficulty{model.DifficultyMedium, model.DifficultyEasy}
	default:
		return []model.Difficulty{model.DifficultyEasy, model.DifficultyHard}
	}
}
