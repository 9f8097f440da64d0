package service

import "github.com/AlekseyZapadovnikov/review-assigner/internal/models"

// Journal получает каждое зафиксированное изменение состояния.
// Методы вызываются внутри критической секции команды и не должны блокироваться.
type Journal interface {
	TeamCreated(team models.Team)
	UserChanged(user models.User)
	PullRequestSaved(pr models.PullRequest)
}

// NopJournal ничего не сохраняет. Используется при хранении только в памяти.
type NopJournal struct{}

func (NopJournal) TeamCreated(models.Team) {}
func (NopJournal) UserChanged(models.User) {}
func (NopJournal) PullRequestSaved(models.PullRequest) {}
