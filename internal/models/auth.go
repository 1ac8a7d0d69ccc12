// Модели REST API: зеркалят JSON удалённого сервиса один в один.
package models

import "time"

// User - профиль пользователя. Заменяется целиком, частично не патчится.
type User struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse - ответ login/register.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
