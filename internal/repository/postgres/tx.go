package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/trivia-live/internal/domain/repository"
)

// TxManager реализует repository.TxManager поверх gorm.DB.Transaction
type TxManager struct {
	db *gorm.DB
}

// NewTxManager создает новый менеджер транзакций
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// NewRepositories собирает набор репозиториев поверх переданного соединения
// (может быть как корневым *gorm.DB, так и транзакцией).
func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		Users:           NewUserRepo(db),
		Trivias:         NewTriviaRepo(db),
		Questions:       NewQuestionRepo(db),
		Options:         NewOptionRepo(db),
		TriviaQuestions: NewTriviaQuestionRepo(db),
		Participations:  NewParticipationRepo(db),
		Answers:         NewAnswerRepo(db),
	}
}

// WithinTx выполняет fn внутри одной транзакции БД.
// Ошибка fn откатывает транзакцию; контекст пробрасывается в каждый запрос,
// поэтому отмена вызывающей стороны прерывает работу до коммита.
func (m *TxManager) WithinTx(ctx context.Context, fn func(r *repository.Repositories) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
