package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/trivia-live/internal/domain/entity"
	apperrors "github.com/yourusername/trivia-live/internal/pkg/errors"
)

// ============================================================================
// Тесты сборки викторины: вопросы, назначение игроков
// ============================================================================

func TestRosterService_AddQuestion_AssignsDensePositions(t *testing.T) {
	env := newTestEnv(t)
	admin := createUser(t, env, "admin", entity.RoleAdmin)
	trivia := createTrivia(t, env, admin)

	for i := 0; i < 3; i++ {
		binding, _ := addQuestion(t, env, trivia, admin, entity.DifficultyEasy, 2, 30)
		assert.Equal(t, i, binding.Position)
	}
}

func TestRosterService_AddQuestion_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := createUser(t, env, "admin", entity.RoleAdmin)
	trivia := createTrivia(t, env, admin)

	two := []OptionInput{{Text: "a", IsCorrect: true}, {Text: "b"}}

	// Пустой текст
	_, err := env.roster.AddQuestion(ctx, trivia.ID, admin.ID, "", entity.DifficultyEasy, two, 30)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// Неизвестная сложность
	_, err = env.roster.AddQuestion(ctx, trivia.ID, admin.ID, "q", "IMPOSSIBLE", two, 30)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// Один вариант
	_, err = env.roster.AddQuestion(ctx, trivia.ID, admin.ID, "q", entity.DifficultyEasy, two[:1], 30)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// Ни одного правильного
	_, err = env.roster.AddQuestion(ctx, trivia.ID, admin.ID, "q", entity.DifficultyEasy,
		[]OptionInput{{Text: "a"}, {Text: "b"}}, 30)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// Два правильных
	_, err = env.roster.AddQuestion(ctx, trivia.ID, admin.ID, "q", entity.DifficultyEasy,
		[]OptionInput{{Text: "a", IsCorrect: true}, {Text: "b", IsCorrect: true}}, 30)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRosterService_AddQuestion_DefaultTimeLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := createUser(t, env, "admin", entity.RoleAdmin)
	trivia := createTrivia(t, env, admin)

	binding, err := env.roster.AddQuestion(ctx, trivia.ID, admin.ID, "q", entity.DifficultyEasy,
		[]OptionInput{{Text: "a", IsCorrect: true}, {Text: "b"}}, 0)
	require.NoError(t, err)
	assert.Equal(t, env.cfg.DefaultQuestionTimeLimit, binding.TimeLimitSeconds)
}

func TestRosterService_QuestionsFrozenInProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := createUser(t, env, "admin", entity.RoleAdmin)
	player := createUser(t, env, "alice", entity.RolePlayer)

	trivia, _, _ := startedTrivia(t, env, admin, []*entity.User{player}, threeQuestions[:1])

	_, err := env.roster.AddQuestion(ctx, trivia.ID, admin.ID, "late", entity.DifficultyEasy,
		[]OptionInput{{Text: "a", IsCorrect: true}, {Text: "b"}}, 30)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestRosterService_AddQuestion_CreatorOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := createUser(t, env, "admin", entity.RoleAdmin)
	other := createUser(t, env, "other", entity.RoleAdmin)
	trivia := createTrivia(t, env, admin)

	_, err := env.roster.AddQuestion(ctx, trivia.ID, other.ID, "q", entity.DifficultyEasy,
		[]OptionInput{{Text: "a", IsCorrect: true}, {Text: "b"}}, 30)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestRosterService_AssignPlayer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := createUser(t, env, "admin", entity.RoleAdmin)
	player := createUser(t, env, "alice", entity.RolePlayer)
	trivia := createTrivia(t, env, admin)

	participation, err := env.roster.AssignPlayer(ctx, trivia.ID, admin.ID, player.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ParticipationStatusInvited, participation.Status)

	// Повторное назначение того же игрока — конфликт уникальной пары
	_, err = env.roster.AssignPlayer(ctx, trivia.ID, admin.ID, player.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// Назначение видно в списке игрока
	assigned, err := env.roster.ListAssignedTrivias(ctx, player.ID)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, trivia.ID, assigned[0].ID)
}
