package member

type Member struct {
	ID     int64  `json:"id"`
	AuthID string `json:"auth_id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Email  string `json:"email"`
}
