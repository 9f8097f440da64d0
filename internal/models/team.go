package models

// Team описывает сущность команды. Порядок Members совпадает с порядком добавления.
type Team struct {
	Members  []TeamMember `json:"members" validate:"required,min=1,dive"`
	TeamName string       `json:"team_name" validate:"required"`
}

// TeamMember описывает участника команды.
type TeamMember struct {
	IsActive bool   `json:"is_active"`
	UserId   string `json:"user_id" validate:"required"`
	Username string `json:"username" validate:"required"`
}

// ConvertUserToTeamMember формирует представление участника команды из сущности пользователя.
func ConvertUserToTeamMember(user User) TeamMember {
	return TeamMember{
		IsActive: user.IsActive,
		UserId:   user.UserId,
		Username: user.Username,
	}
}

// Clone возвращает копию команды, не разделяющую срез участников с оригиналом.
func (t Team) Clone() Team {
	members := make([]TeamMember, len(t.Members))
	copy(members, t.Members)
	return Team{TeamName: t.TeamName, Members: members}
}
