package payload

type RegisterRequest struct {
	Name       string `json:"name"        validate:"required,min=2,max=100"`
	Email      string `json:"email"       validate:"required,email"`
	RollNumber string `json:"roll_number" validate:"required,min=3,max=20"`
	Password   string `json:"password"    validate:"required,min=8"`
	Year       string `json:"year"        validate:"required,oneof=1 2 3 4"`
	Branch     string `json:"branch"      validate:"required"`
}

type RegisterResponse struct {
	Message          string `json:"message"`
	Email            string `json:"email"`
	OTPExpiresInMins int    `json:"otp_expires_in_mins"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp"   validate:"required,len=6,numeric"`
}

type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type LoginRequest struct {
	RollNumber string `json:"roll_number" validate:"required"`
	Password   string `json:"password"    validate:"required"`
}

type AuthResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	OTP         string `json:"otp"          validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}
