package models

// Роли пользователей. Администратор управляет статусами любых заказов.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет пользователя
type User struct {
	ID       int64
	Email    string
	PassHash []byte
	Role     string
}
