package entity

import (
	"time"

	"github.com/google/uuid"
)

// Константы статусов участия
const (
	ParticipationStatusInvited      = "INVITED"
	ParticipationStatusJoined       = "JOINED"
	ParticipationStatusReady        = "READY"
	ParticipationStatusFinished     = "FINISHED"
	ParticipationStatusDisconnected = "DISCONNECTED"
)

// Participation — членство пользователя в викторине. Несет счёт и состояние
// подсказки 50/50. Пара (trivia_id, user_id) уникальна.
// Инвариант: score == SUM(earned_points) по ответам этого участия.
type Participation struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TriviaID             uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_trivia_user,priority:1" json:"trivia_id"`
	UserID               uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_trivia_user,priority:2" json:"user_id"`
	Status               string     `gorm:"size:20;not null;default:'INVITED'" json:"status"`
	Score                int        `gorm:"not null;default:0" json:"score"`
	JoinedAt             *time.Time `json:"joined_at,omitempty"`
	ReadyAt              *time.Time `json:"ready_at,omitempty"`
	LastSeenAt           *time.Time `json:"last_seen_at,omitempty"`
	FinishedAt           *time.Time `json:"finished_at,omitempty"`
	FiftyFiftyUsed       bool       `gorm:"not null;default:false" json:"fifty_fifty_used"`
	FiftyFiftyQuestionID *uuid.UUID `gorm:"type:uuid" json:"fifty_fifty_question_id,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (Participation) TableName() string {
	return "participations"
}

// IsReady проверяет готовность участника
func (p *Participation) IsReady() bool {
	return p.Status == ParticipationStatusReady
}

// IsPresent проверяет присутствие участника: последний heartbeat не старше TTL
func (p *Participation) IsPresent(now time.Time, ttl time.Duration) bool {
	return p.LastSeenAt != nil && now.Sub(*p.LastSeenAt) <= ttl
}
