package dto

// ── 认证模块 DTO ──

// IdentityResponse 当前令牌所代表的身份
type IdentityResponse struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	CanWrite  bool   `json:"can_write"`
	ExpiresAt string `json:"expires_at,omitempty"`
}
