package user

type User struct {
	Name     string `json:"name" db:"name"`
	Email    string `json:"email" db:"email"`
	Role     Role   `json:"role" db:"role"`
	Password string `json:"-" db:"password"` // bcrypt-хеш, наружу не отдаётся
}

type Role string

const RoleAdmin Role = "admin"
const RoleUser Role = "user"

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Details — публичная часть пользователя, подставляется в списки задач
type Details struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Details() Details {
	return Details{Name: u.Name, Email: u.Email}
}
