package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/trivia-live/internal/domain/entity"
	apperrors "github.com/yourusername/trivia-live/internal/pkg/errors"
)

// ============================================================================
// Тесты лобби: присутствие по TTL, сортировка, агрегаты
// ============================================================================

func TestLobbyService_GetLobby_SortedByName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := createUser(t, env, "admin", entity.RoleAdmin)
	trivia := createTrivia(t, env, admin)

	// Присоединяем в обратном алфавитном порядке
	for _, name := range []string{"carol", "bob", "alice"} {
		player := createUser(t, env, name, entity.RolePlayer)
		_, err := env.game.JoinTrivia(ctx, trivia.ID, player.ID)
		require.NoError(t, err)
	}

	snapshot, err := env.lobby.GetLobby(ctx, trivia.ID)
	require.NoError(t, err)

	require.Len(t, snapshot.Players, 3)
	assert.Equal(t, "alice", snapshot.Players[0].Name)
	assert.Equal(t, "bob", snapshot.Players[1].Name)
	assert.Equal(t, "carol", snapshot.Players[2].Name)
	for _, row := range snapshot.Players {
		assert.True(t, row.Present)
		assert.True(t, row.Ready)
	}
}

func TestLobbyService_PresenceExpiresByTTL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := createUser(t, env, "admin", entity.RoleAdmin)
	alice := createUser(t, env, "alice", entity.RolePlayer)
	bob := createUser(t, env, "bob", entity.RolePlayer)
	trivia := createTrivia(t, env, admin)

	for _, p := range []*entity.User{alice, bob} {
		_, err := env.game.JoinTrivia(ctx, trivia.ID, p.ID)
		require.NoError(t, err)
	}

	// TTL 15 секунд: через 16 секунд heartbeat шлет только Алиса
	env.advanceClock(16 * time.Second)
	require.NoError(t, env.lobby.Heartbeat(ctx, trivia.ID, alice.ID))

	snapshot, err := env.lobby.GetAdminLobby(ctx, trivia.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, snapshot.AssignedCount)
	assert.Equal(t, 1, snapshot.PresentCount)
	assert.Equal(t, 2, snapshot.ReadyCount, "готовность не протухает вместе с присутствием")

	for _, row := range snapshot.Players {
		switch row.Name {
		case "alice":
			assert.True(t, row.Present)
		case "bob":
			assert.False(t, row.Present)
		}
	}
}

func TestLobbyService_PresenceBoundaryIsInclusive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := createUser(t, env, "admin", entity.RoleAdmin)
	player := createUser(t, env, "alice", entity.RolePlayer)
	trivia := createTrivia(t, env, admin)

	result, err := env.game.JoinTrivia(ctx, trivia.ID, player.ID)
	require.NoError(t, err)

	// Ровно TTL — еще присутствует
	env.store.TouchLastSeen(result.ParticipationID, env.clock.Add(-15*time.Second))
	snapshot, err := env.lobby.GetLobby(ctx, trivia.ID)
	require.NoError(t, err)
	assert.True(t, snapshot.Players[0].Present)

	// TTL + секунда — уже нет
	env.store.TouchLastSeen(result.ParticipationID, env.clock.Add(-16*time.Second))
	snapshot, err = env.lobby.GetLobby(ctx, trivia.ID)
	require.NoError(t, err)
	assert.False(t, snapshot.Players[0].Present)
}

// Heartbeat пишет ровно одну колонку: команда, закоммиченная между его
// чтением часов и записью, не затирается устаревшей копией строки
func TestLobbyService_Heartbeat_DoesNotClobberConcurrentFiftyFifty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := createUser(t, env, "admin", entity.RoleAdmin)
	player := createUser(t, env, "alice", entity.RolePlayer)

	trivia, bindings, _ := startedTrivia(t, env, admin, []*entity.User{player}, []struct {
		Difficulty string
		Options    int
		TimeLimit  int
	}{{entity.DifficultyEasy, 4, 30}})

	// Подсказка коммитится посреди Heartbeat: между его чтением часов и записью
	fired := false
	env.lobby.now = func() time.Time {
		if !fired {
			fired = true
			_, err := env.play.UseFiftyFifty(ctx, trivia.ID, bindings[0].QuestionID, player.ID)
			require.NoError(t, err)
		}
		return env.clock
	}

	require.NoError(t, env.lobby.Heartbeat(ctx, trivia.ID, player.ID))

	participation, err := env.repos.Participations.GetByTriviaAndUser(ctx, trivia.ID, player.ID)
	require.NoError(t, err)
	assert.True(t, participation.FiftyFiftyUsed, "heartbeat не стирает флаг подсказки")
	require.NotNil(t, participation.FiftyFiftyQuestionID)
	assert.Equal(t, env.clock, *participation.LastSeenAt)

	// Повторная подсказка по-прежнему запрещена
	_, err = env.play.UseFiftyFifty(ctx, trivia.ID, bindings[0].QuestionID, player.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestLobbyService_Heartbeat_DoesNotRegressReady(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.cfg.JoinAsReady = false

	admin := createUser(t, env, "admin", entity.RoleAdmin)
	player := createUser(t, env, "alice", entity.RolePlayer)
	trivia := createTrivia(t, env, admin)

	result, err := env.game.JoinTrivia(ctx, trivia.ID, player.ID)
	require.NoError(t, err)
	require.Equal(t, entity.ParticipationStatusJoined, result.ParticipationStatus)

	// Готовность коммитится посреди Heartbeat
	fired := false
	env.lobby.now = func() time.Time {
		if !fired {
			fired = true
			_, err := env.game.SetReady(ctx, trivia.ID, player.ID)
			require.NoError(t, err)
		}
		return env.clock
	}

	require.NoError(t, env.lobby.Heartbeat(ctx, trivia.ID, player.ID))

	participation, err := env.repos.Participations.GetByTriviaAndUser(ctx, trivia.ID, player.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ParticipationStatusReady, participation.Status, "READY не регрессирует из-за heartbeat")
	require.NotNil(t, participation.ReadyAt)
}

func TestLobbyService_Heartbeat_RequiresParticipation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := createUser(t, env, "admin", entity.RoleAdmin)
	outsider := createUser(t, env, "outsider", entity.RolePlayer)
	trivia := createTrivia(t, env, admin)

	err := env.lobby.Heartbeat(ctx, trivia.ID, outsider.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
