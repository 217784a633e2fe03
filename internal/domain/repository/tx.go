package repository

import "context"

// Repositories — набор репозиториев, разделяющих одну сессию хранилища.
// Внутри транзакции все репозитории работают через один *gorm.Tx (или его
// in-memory аналог), поэтому видимый ответ подразумевает консистентный счёт.
type Repositories struct {
	Users           UserRepository
	Trivias         TriviaRepository
	Questions       QuestionRepository
	Options         OptionRepository
	TriviaQuestions TriviaQuestionRepository
	Participations  ParticipationRepository
	Answers         AnswerRepository
}

// TxManager выполняет функцию внутри одной транзакции хранилища.
// Ошибка из fn откатывает транзакцию целиком; частичный коммит невозможен.
// События публикуются вызывающим кодом строго ПОСЛЕ успешного возврата.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(r *Repositories) error) error
}
