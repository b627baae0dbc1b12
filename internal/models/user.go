package models

const (
	RoleCustomer = "customer"
	RoleEmployee = "employee" // Field staff operating display units
	RoleAdmin    = "admin"
)

// User is a customer account; phone is the login identity (verified by the OTP service)
type User struct {
	ID          string  `json:"id" db:"id"`
	Phone       string  `json:"phone" db:"phone"`
	Name        string  `json:"name" db:"name"`
	Email       *string `json:"email,omitempty" db:"email"`
	CompanyName *string `json:"company_name,omitempty" db:"company_name"`
	Role        string  `json:"role" db:"role"` // "customer", "employee" or "admin"
	CreatedAt   int64   `json:"created_at" db:"created_at"`
	UpdatedAt   int64   `json:"updated_at" db:"updated_at"`
}

type UserResponse struct {
	ID          string  `json:"id"`
	Phone       string  `json:"phone"`
	Name        string  `json:"name"`
	Email       *string `json:"email,omitempty"`
	CompanyName *string `json:"company_name,omitempty"`
	Role        string  `json:"role"`
	CreatedAt   int64   `json:"created_at"`
}

func (u *User) ToUserResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Phone:       u.Phone,
		Name:        u.Name,
		Email:       u.Email,
		CompanyName: u.CompanyName,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
	}
}

// UpdateProfileRequest is the request body for PATCH /api/profile
type UpdateProfileRequest struct {
	Name        *string `json:"name,omitempty"`
	Email       *string `json:"email,omitempty"`
	CompanyName *string `json:"company_name,omitempty"`
}

// FCMToken represents a Firebase Cloud Messaging token for a user
type FCMToken struct {
	ID         int    `json:"id" db:"id"`
	UserID     string `json:"user_id" db:"user_id"`
	Token      string `json:"token" db:"token"`
	DeviceType string `json:"device_type" db:"device_type"` // "ios" or "android"
	CreatedAt  int64  `json:"created_at" db:"created_at"`
	UpdatedAt  int64  `json:"updated_at" db:"updated_at"`
}

// RegisterFCMTokenRequest is the request body for POST /api/fcm-token
type RegisterFCMTokenRequest struct {
	Token      string `json:"token"`
	DeviceType string `json:"device_type"`
}
