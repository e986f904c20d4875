package dto

import (
	"time"

	domainnotify "automarket/internal/domain/notify"
	domainuser "automarket/internal/domain/user"
)

type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	City      string    `json:"city,omitempty"`
	Roles     []string  `json:"roles"`
	Blocked   bool      `json:"blocked"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`
}

func NewAuthResponse(u *domainuser.User, token string) AuthResponse {
	return AuthResponse{Token: token, User: MapUserProfile(u)}
}

type NotificationView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type NotificationFeed struct {
	Items  []NotificationView `json:"items"`
	Unread int                `json:"unread"`
}

func MapUserProfile(u *domainuser.User) UserProfile {
	if u == nil {
		return UserProfile{}
	}
	roles := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		roles = append(roles, string(role))
	}
	return UserProfile{
		ID:        string(u.ID),
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		City:      u.City,
		Roles:     roles,
		Blocked:   u.Blocked,
		CreatedAt: u.CreatedAt,
	}
}

func MapNotifications(items []*domainnotify.Notification, unread int) NotificationFeed {
	views := make([]NotificationView, 0, len(items))
	for _, n := range items {
		views = append(views, NotificationView{
			ID:        string(n.ID),
			Title:     n.Title,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	return NotificationFeed{Items: views, Unread: unread}
}
