package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/lshigami/voicequiz/internal/dto"
	"github.com/lshigami/voicequiz/internal/model"
	"github.com/lshigami/voicequiz/internal/repository"
	"github.com/lshigami/voicequiz/internal/service"
)

// AdminQuestionController manages the question corpus: manual authoring,
// LLM generation and the review workflow.
type AdminQuestionController struct {
	questionRepo repository.QuestionRepository
	ratingRepo   repository.RatingRepository
	generatorSvc service.GeneratorService
}

func NewAdminQuestionController(questionRepo repository.QuestionRepository, ratingRepo repository.RatingRepository, generatorSvc service.GeneratorService) *AdminQuestionController {
	return &AdminQuestionController{
		questionRepo: questionRepo,
		ratingRepo:   ratingRepo,
		generatorSvc: generatorSvc,
	}
}

// CreateQuestion godoc
// @Summary (Admin) Create a question
// @Description Manually authored questions are approved immediately.
// @Tags Admin - Questions
// @Accept json
// @Produce json
// @Param question body dto.CreateQuestionRequest true "Question data"
// @Success 201 {object} dto.AdminQuestionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/questions [post]
func (ctrl *AdminQuestionController) CreateQuestion(c *gin.Context) {
	var req dto.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to bind CreateQuestionRequest")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	if req.Type == model.QuestionTypeMultichoice && len(req.PossibleAnswers) == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Multiple-choice questions require possible_answers"})
		return
	}

	question := model.Question{
		ID:                 model.NewQuestionID(),
		QuestionText:       req.QuestionText,
		Type:               req.Type,
		PossibleAnswers:    req.PossibleAnswers,
		CorrectAnswer:      req.CorrectAnswer,
		AlternativeAnswers: req.AlternativeAnswers,
		Topic:              req.Topic,
		Category:           req.Category,
		Difficulty:         model.Difficulty(req.Difficulty),
		Tags:               req.Tags,
		ReviewStatus:       model.ReviewStatusApproved,
		Source:             "manual",
		Explanation:        req.Explanation,
		CreatedBy:          req.CreatedBy,
	}
	if err := ctrl.questionRepo.Create(&question); err != nil {
		log.Error().Err(err).Msg("Failed to create question")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to create question", Details: []string{err.Error()}})
		return
	}
	c.JSON(http.StatusCreated, toAdminQuestionResponse(&question))
}

// ListQuestions godoc
// @Summary (Admin) List questions
// @Tags Admin - Questions
// @Produce json
// @Param review_status query string false "Filter by review status (pending, approved, rejected)"
// @Success 200 {array} dto.AdminQuestionResponse
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/questions [get]
func (ctrl *AdminQuestionController) ListQuestions(c *gin.Context) {
	questions, err := ctrl.questionRepo.FindAll(c.Query("review_status"))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list questions")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve questions"})
		return
	}

	out := make([]dto.AdminQuestionResponse, 0, len(questions))
	for i := range questions {
		out = append(out, toAdminQuestionResponse(&questions[i]))
	}
	c.JSON(http.StatusOK, out)
}

// GetQuestion godoc
// @Summary (Admin) Get one question with its rating summary
// @Tags Admin - Questions
// @Produce json
// @Param question_id path string true "Question ID"
// @Success 200 {object} dto.AdminQuestionResponse
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /admin/questions/{question_id} [get]
func (ctrl *AdminQuestionController) GetQuestion(c *gin.Context) {
	question, err := ctrl.questionRepo.FindByID(c.Param("question_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Question not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve question"})
		return
	}
	c.JSON(http.StatusOK, toAdminQuestionResponse(question))
}

// SetReviewStatus godoc
// @Summary (Admin) Approve or reject a question
// @Tags Admin - Questions
// @Produce json
// @Param question_id path string true "Question ID"
// @Param status query string true "New status (approved or rejected)"
// @Success 200 {object} dto.AckResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid status"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /admin/questions/{question_id}/review [put]
func (ctrl *AdminQuestionController) SetReviewStatus(c *gin.Context) {
	status := c.Query("status")
	if status != model.ReviewStatusApproved && status != model.ReviewStatusRejected {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Status must be approved or rejected"})
		return
	}

	if err := ctrl.questionRepo.SetReviewStatus(c.Param("question_id"), status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Question not found"})
			return
		}
		log.Error().Err(err).Str("question_id", c.Param("question_id")).Msg("Failed to update review status")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to update review status"})
		return
	}
	c.JSON(http.StatusOK, dto.AckResponse{Success: true, Message: "Review status updated"})
}

// DeleteQuestion godoc
// @Summary (Admin) Delete a question
// @Tags Admin - Questions
// @Produce json
// @Param question_id path string true "Question ID"
// @Success 200 {object} dto.AckResponse
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/questions/{question_id} [delete]
func (ctrl *AdminQuestionController) DeleteQuestion(c *gin.Context) {
	if err := ctrl.questionRepo.Delete(c.Param("question_id")); err != nil {
		log.Error().Err(err).Str("question_id", c.Param("question_id")).Msg("Failed to delete question")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to delete question"})
		return
	}
	c.JSON(http.StatusOK, dto.AckResponse{Success: true, Message: "Question deleted"})
}

// GenerateQuestions godoc
// @Summary (Admin) Generate questions with the LLM
// @Description Generated questions land in the pending queue and must be approved before players see them.
// @Tags Admin - Questions
// @Accept json
// @Produce json
// @Param generation body dto.GenerateQuestionsRequest true "Generation parameters"
// @Success 201 {array} dto.AdminQuestionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 502 {object} dto.ErrorResponse "Generation provider failed"
// @Router /admin/questions/generate [post]
func (ctrl *AdminQuestionController) GenerateQuestions(c *gin.Context) {
	var req dto.GenerateQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	questions, err := ctrl.generatorSvc.GenerateQuestions(c.Request.Context(), req)
	if err != nil {
		log.Error().Err(err).Str("topic", req.Topic).Msg("Question generation failed")
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Message: "Question generation failed", Details: []string{err.Error()}})
		return
	}

	out := make([]dto.AdminQuestionResponse, 0, len(questions))
	for i := range questions {
		out = append(out, toAdminQuestionResponse(&questions[i]))
	}
	c.JSON(http.StatusCreated, out)
}

func toAdminQuestionResponse(q *model.Question) dto.AdminQuestionResponse {
	var resp dto.AdminQuestionResponse
	if err := copier.Copy(&resp, q); err != nil {
		log.Error().Err(err).Msg("Failed to map question")
	}
	resp.Difficulty = string(q.Difficulty)
	return resp
}
