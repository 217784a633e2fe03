package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/trivia-live/internal/domain/entity"
	apperrors "github.com/yourusername/trivia-live/internal/pkg/errors"
	"github.com/yourusername/trivia-live/internal/sse"
)

// ============================================================================
// Тесты конвейера ответов: оценка, идемпотентность, таймаут, 50/50
// ============================================================================

var threeQuestions = []struct {
	Difficulty string
	Options    int
	TimeLimit  int
}{
	{entity.DifficultyEasy, 4, 30},
	{entity.DifficultyMedium, 4, 30},
	{entity.DifficultyHard, 4, 30},
}

// Сценарий полной партии: Алиса отвечает правильно на все три вопроса,
// Боб — неправильно, правильно и с опозданием. Итог: Алиса 6, Боб 2.
func TestPlayService_FullGame_Scoring(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := createUser(t, env, "admin", entity.RoleAdmin)
	alice := createUser(t, env, "alice", entity.RolePlayer)
	bob := createUser(t, env, "bob", entity.RolePlayer)

	trivia, _, allOptions := startedTrivia(t, env, admin, []*entity.User{alice, bob}, threeQuestions)

	// Вопрос 0 (EASY, 1 очко): Алиса правильно, Боб неправильно
	env.advanceClock(5 * time.Second)
	res, err := env.play.SubmitAnswer(ctx, trivia.ID, alice.ID, correctOf(t, allOptions[0]).ID)
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.Equal(t, 1, res.EarnedPoints)
	assert.Equal(t, 1, res.TotalScore)
	assert.Equal(t, 25, res.TimeRemainingSeconds)

	res, err = env.play.SubmitAnswer(ctx, trivia.ID, bob.ID, wrongOf(t, allOptions[0]).ID)
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
	assert.Zero(t, res.EarnedPoints)

	_, err = env.game.AdvanceQuestion(ctx, trivia.ID, admin.ID)
	require.NoError(t, err)

	// Вопрос 1 (MEDIUM, 2 очка): оба правильно
	env.advanceClock(5 * time.Second)
	res, err = env.play.SubmitAnswer(ctx, trivia.ID, alice.ID, correctOf(t, allOptions[1]).ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.EarnedPoints)
	assert.Equal(t, 3, res.TotalScore)

	res, err = env.play.SubmitAnswer(ctx, trivia.ID, bob.ID, correctOf(t, allOptions[1]).ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalScore)

	_, err = env.game.AdvanceQuestion(ctx, trivia.ID, admin.ID)
	require.NoError(t, err)

	// Вопрос 2 (HARD, 3 очка): Алиса успевает, Боб отвечает после таймаута
	env.advanceClock(5 * time.Second)
	res, err = env.play.SubmitAnswer(ctx, trivia.ID, alice.ID, correctOf(t, allOptions[2]).ID)
	require.NoError(t, err)
	assert.Equal(t, 3, res.EarnedPoints)
	assert.Equal(t, 6, res.TotalScore)

	env.advanceClock(26 * time.Second) // 31-я секунда вопроса
	res, err = env.play.SubmitAnswer(ctx, trivia.ID, bob.ID, correctOf(t, allOptions[2]).ID)
	require.NoError(t, err)
	assert.False(t, res.IsCorrect, "просроченный ответ не засчитывается даже при верном варианте")
	assert.Zero(t, res.EarnedPoints)
	assert.Equal(t, 2, res.TotalScore)
	assert.Zero(t, res.TimeRemainingSeconds)

	_, err = env.game.AdvanceQuestion(ctx, trivia.ID, admin.ID)
	require.NoError(t, err)

	ranking, err := env.rank.GetRanking(ctx, trivia.ID)
	require.NoError(t, err)
	assert.Equal(t, "FINISHED", ranking.State)
	require.Len(t, ranking.Entries, 2)
	assert.Equal(t, alice.ID, ranking.Entries[0].UserID)
	assert.Equal(t, 6, ranking.Entries[0].Score)
	assert.Equal(t, 1, ranking.Entries[0].Position)
	assert.Equal(t, bob.ID, ranking.Entries[1].UserID)
	assert.Equal(t, 2, ranking.Entries[1].Score)
	assert.Equal(t, 2, ranking.Entries[1].Position)
}

// Сценарий двойной отправки: повторный submit возвращает исход первого
// ответа с time_remaining=0 и не создает новой строки
func TestPlayService_SubmitAnswer_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := createUser(t, env, "admin", entity.RoleAdmin)
	player := createUser(t, env, "alice", entity.RolePlayer)

	trivia, _, allOptions := startedTrivia(t, env, admin, []*entity.User{player}, threeQuestions[:1])

	env.advanceClock(5 * time.Second)
	first, err := env.play.SubmitAnswer(ctx, trivia.ID, player.ID, correctOf(t, allOptions[0]).ID)
	require.NoError(t, err)
	require.Equal(t, 1, env.store.AnswerCount())
	require.Equal(t, 1, env.pub.count(), "вставка ответа публикует ranking_updated")
	env.pub.reset()

	env.advanceClock(3 * time.Second)
	second, err := env.play.SubmitAnswer(ctx, trivia.ID, player.ID, wrongOf(t, allOptions[0]).ID)
	require.NoError(t, err)

	// Сохраненный исход, а не переоценка нового варианта
	assert.Equal(t, first.SelectedOptionID, second.SelectedOptionID)
	assert.True(t, second.IsCorrect)
	assert.Equal(t, 1, second.EarnedPoints)
	assert.Equal(t, 1, second.TotalScore)
	assert.Zero(t, second.TimeRemainingSeconds)

	assert.Equal(t, 1, env.store.AnswerCount(), "новая строка не создана")
	assert.Zero(t, env.pub.count(), "повторная отправка не публикует событий")
}

// Сценарий таймаута: правильный вариант после истечения лимита — false/0
func TestPlayService_SubmitAnswer_AfterTimeout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := createUser(t, env, "admin", entity.RoleAdmin)
	player := createUser(t, env, "alice", entity.RolePlayer)

	trivia, _, allOptions := startedTrivia(t, env, admin, []*entity.User{player}, threeQuestions[:1])

	env.advanceClock(31 * time.Second)
	res, err := env.play.SubmitAnswer(ctx, trivia.ID, player.ID, correctOf(t, allOptions[0]).ID)
	require.NoError(t, err)

	assert.False(t, res.IsCorrect)
	assert.Zero(t, res.EarnedPoints)
	assert.Zero(t, res.TotalScore)
	assert.Zero(t, res.TimeRemainingSeconds)
	assert.Equal(t, 1, env.store.AnswerCount(), "просроченный ответ все равно записывается")
}

func TestPlayService_SubmitAnswer_Preconditions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := createUser(t, env, "admin", entity.RoleAdmin)
	alice := createUser(t, env, "alice", entity.RolePlayer)
	outsider := createUser(t, env, "outsider", entity.RolePlayer)

	trivia, _, allOptions := startedTrivia(t, env, admin, []*entity.User{alice}, threeQuestions[:2])
	correct := correctOf(t, allOptions[0])

	// Неизвестная викторина
	_, err := env.play.SubmitAnswer(ctx, uuid.New(), alice.ID, correct.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Пользователь без участия
	_, err = env.play.SubmitAnswer(ctx, trivia.ID, outsider.ID, correct.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Вариант не текущего вопроса
	_, err = env.play.SubmitAnswer(ctx, trivia.ID, alice.ID, correctOf(t, allOptions[1]).ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Игра не идет
	_, err = env.game.AdvanceQuestion(ctx, trivia.ID, admin.ID)
	require.NoError(t, err)
	_, err = env.game.AdvanceQuestion(ctx, trivia.ID, admin.ID)
	require.NoError(t, err)
	_, err = env.play.SubmitAnswer(ctx, trivia.ID, alice.ID, correct.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	assert.Zero(t, env.store.AnswerCount(), "неудачные отправки не оставляют ответов")
}

// Сценарий 50/50: возвращается правильный вариант плюс один неправильный,
// подсказка одноразовая, последующий ответ оценивается как обычно
func TestPlayService_UseFiftyFifty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := createUser(t, env, "admin", entity.RoleAdmin)
	player := createUser(t, env, "alice", entity.RolePlayer)

	trivia, bindings, allOptions := startedTrivia(t, env, admin, []*entity.User{player}, threeQuestions[:2])
	questionID := bindings[0].QuestionID
	correct := correctOf(t, allOptions[0])

	result, err := env.play.UseFiftyFifty(ctx, trivia.ID, questionID, player.ID)
	require.NoError(t, err)
	require.Len(t, result.AllowedOptions, 2)
	assert.True(t, result.FiftyFiftyUsed)

	var hasCorrect, hasIncorrect bool
	for _, opt := range result.AllowedOptions {
		if opt.ID == correct.ID {
			hasCorrect = true
		} else {
			hasIncorrect = true
		}
	}
	assert.True(t, hasCorrect, "правильный вариант всегда в паре")
	assert.True(t, hasIncorrect, "второй вариант — неправильный")

	// Флаг персистентен
	participation, err := env.repos.Participations.GetByTriviaAndUser(ctx, trivia.ID, player.ID)
	require.NoError(t, err)
	assert.True(t, participation.FiftyFiftyUsed)
	require.NotNil(t, participation.FiftyFiftyQuestionID)
	assert.Equal(t, questionID, *participation.FiftyFiftyQuestionID)

	// Ответ после подсказки оценивается как обычно
	env.advanceClock(5 * time.Second)
	submit, err := env.play.SubmitAnswer(ctx, trivia.ID, player.ID, correct.ID)
	require.NoError(t, err)
	assert.True(t, submit.IsCorrect)
	assert.Equal(t, 1, submit.EarnedPoints)

	// Вторая подсказка невозможна даже на другом вопросе
	_, err = env.game.AdvanceQuestion(ctx, trivia.ID, admin.ID)
	require.NoError(t, err)
	_, err = env.play.UseFiftyFifty(ctx, trivia.ID, bindings[1].QuestionID, player.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestPlayService_UseFiftyFifty_Guards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := createUser(t, env, "admin", entity.RoleAdmin)
	player := createUser(t, env, "alice", entity.RolePlayer)

	questions := []struct {
		Difficulty string
		Options    int
		TimeLimit  int
	}{
		{entity.DifficultyEasy, 4, 30},
		{entity.DifficultyMedium, 2, 30}, // слишком мало вариантов для 50/50
	}
	trivia, bindings, allOptions := startedTrivia(t, env, admin, []*entity.User{player}, questions)

	// Не текущий вопрос
	_, err := env.play.UseFiftyFifty(ctx, trivia.ID, bindings[1].QuestionID, player.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	// Уже отвечено
	_, err = env.play.SubmitAnswer(ctx, trivia.ID, player.ID, wrongOf(t, allOptions[0]).ID)
	require.NoError(t, err)
	_, err = env.play.UseFiftyFifty(ctx, trivia.ID, bindings[0].QuestionID, player.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// Вопрос с двумя вариантами не подходит для подсказки
	_, err = env.game.AdvanceQuestion(ctx, trivia.ID, admin.ID)
	require.NoError(t, err)
	_, err = env.play.UseFiftyFifty(ctx, trivia.ID, bindings[1].QuestionID, player.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestPlayService_CurrentQuestion_HidesCorrectness(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := createUser(t, env, "admin", entity.RoleAdmin)
	player := createUser(t, env, "alice", entity.RolePlayer)

	trivia, bindings, allOptions := startedTrivia(t, env, admin, []*entity.User{player}, threeQuestions[:1])

	env.advanceClock(10 * time.Second)
	result, err := env.play.CurrentQuestion(ctx, trivia.ID, player.ID)
	require.NoError(t, err)

	assert.Equal(t, bindings[0].QuestionID, result.QuestionID)
	assert.Len(t, result.Options, len(allOptions[0]))
	assert.Equal(t, 20, result.TimeRemainingSeconds)
	assert.Zero(t, result.QuestionIndex)
	assert.Equal(t, 1, result.TotalQuestions)
	assert.True(t, result.FiftyFiftyAvailable)

	// После ответа подсказка на этот вопрос недоступна
	_, err = env.play.SubmitAnswer(ctx, trivia.ID, player.ID, correctOf(t, allOptions[0]).ID)
	require.NoError(t, err)
	result, err = env.play.CurrentQuestion(ctx, trivia.ID, player.ID)
	require.NoError(t, err)
	assert.False(t, result.FiftyFiftyAvailable)
}

// Инвариант: счёт участия всегда равен сумме earned_points его ответов
func TestPlayService_ScoreMatchesAnswerLog(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := createUser(t, env, "admin", entity.RoleAdmin)
	player := createUser(t, env, "alice", entity.RolePlayer)

	trivia, _, allOptions := startedTrivia(t, env, admin, []*entity.User{player}, threeQuestions)

	expected := 0
	points := []int{1, 2, 3}
	for i := range threeQuestions {
		env.advanceClock(2 * time.Second)
		res, err := env.play.SubmitAnswer(ctx, trivia.ID, player.ID, correctOf(t, allOptions[i]).ID)
		require.NoError(t, err)
		expected += points[i]
		assert.Equal(t, expected, res.TotalScore)

		participation, err := env.repos.Participations.GetByTriviaAndUser(ctx, trivia.ID, player.ID)
		require.NoError(t, err)
		assert.Equal(t, expected, participation.Score, "счёт пересчитан в той же транзакции")

		_, err = env.game.AdvanceQuestion(ctx, trivia.ID, admin.ID)
		require.NoError(t, err)
	}

	// Событие рейтинга публикуется только при вставке нового ответа
	assert.True(t, env.pub.contains(sse.EventRankingUpdated))
}
