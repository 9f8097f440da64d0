package models

// User описывает сущность пользователя.
type User struct {
	IsActive bool   `json:"is_active"`
	TeamName string `json:"team_name"`
	UserId   string `json:"user_id"`
	Username string `json:"username"`
}

// PostUsersSetIsActiveJSONBody описывает тело запроса на изменение активности пользователя.
// IsActive передаётся указателем, чтобы отличать false от отсутствующего поля.
type PostUsersSetIsActiveJSONBody struct {
	IsActive *bool  `json:"is_active" validate:"required"`
	UserId   string `json:"user_id" validate:"required"`
}

// ConvertTmToUser преобразует участника команды в сущность пользователя, добавляя название команды.
func ConvertTmToUser(tm TeamMember, teamName string) User {
	return User{
		IsActive: tm.IsActive,
		TeamName: teamName,
		UserId:   tm.UserId,
		Username: tm.Username,
	}
}
