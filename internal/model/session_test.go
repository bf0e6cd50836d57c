package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDifficultyStepClamps(t *testing.T) {
	assert.Equal(t, DifficultyHard, DifficultyMedium.Step(1))
	assert.Equal(t, DifficultyEasy, DifficultyMedium.Step(-1))
	assert.Equal(t, DifficultyHard, DifficultyHard.Step(1))
	assert.Equal(t, DifficultyEasy, DifficultyEasy.Step(-1))
	assert.Equal(t, DifficultyHard, DifficultyEasy.Step(5))
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty("hard")
	require.NoError(t, err)
	assert.Equal(t, DifficultyHard, d)

	_, err = ParseDifficulty("extreme")
	assert.Error(t, err)
}

func TestLastQuestionID(t *testing.T) {
	s := &Session{}
	assert.Empty(t, s.LastQuestionID())

	s.AskedQuestionIDs = []string{"q_1", "q_2"}
	assert.Equal(t, "q_2", s.LastQuestionID())

	s.CurrentQuestion = &Question{ID: "q_3"}
	assert.Equal(t, "q_3", s.LastQuestionID())
}

func TestCloneIsDeep(t *testing.T) {
	s := &Session{
		ID:               "sess_a",
		AskedQuestionIDs: []string{"q_1"},
		PreferredTopics:  []string{"history"},
		Participants:     []Participant{{ParticipantID: "p_1", Score: 1}},
		CurrentQuestion:  &Question{ID: "q_2"},
		ExpiresAt:        time.Now().Add(time.Hour),
	}

	cp := s.Clone()
	cp.AskedQuestionIDs[0] = "q_x"
	cp.Participants[0].Score = 99
	cp.CurrentQuestion.ID = "q_y"

	assert.Equal(t, "q_1", s.AskedQuestionIDs[0])
	assert.Equal(t, 1.0, s.Participants[0].Score)
	assert.Equal(t, "q_2", s.CurrentQuestion.ID)
}
