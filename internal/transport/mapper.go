package transport

import "github.com/Skotchmaster/taskboard/internal/models"

func User(u *models.User) *UserResponse {
	return &UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

func Users(us []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(us))
	for i := range us {
		out = append(out, *User(&us[i]))
	}
	return out
}

func Column(c *models.Column) ColumnResponse {
	return ColumnResponse{ID: c.ID, Name: c.Name, Order: c.Order}
}

func Columns(cs []models.Column) []ColumnResponse {
	out := make([]ColumnResponse, 0, len(cs))
	for i := range cs {
		out = append(out, Column(&cs[i]))
	}
	return out
}
