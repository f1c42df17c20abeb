package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"school-admin/backend/internal/dto"
	"school-admin/backend/internal/model"
	"school-admin/backend/internal/repository"
	pkgerrors "school-admin/backend/pkg/errors"
)

// ── 教室模块业务错误 ──

var (
	ErrRoomNotFound   = errors.New("教室不存在")
	ErrRoomNameExists = errors.New("教室名称已存在")
	ErrRoomInUse      = errors.New("教室仍被启用课节引用")
)

// RoomService 教室目录业务接口
// 课节按名称引用教室，被启用课节引用的教室不能改名、停用或删除
type RoomService interface {
	Create(ctx context.Context, req *dto.CreateRoomRequest, callerID string) (*dto.RoomResponse, error)
	GetByID(ctx context.Context, id string) (*dto.RoomResponse, error)
	List(ctx context.Context, req *dto.RoomListRequest) ([]dto.RoomResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateRoomRequest, callerID string) (*dto.RoomResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type roomService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRoomService 创建 RoomService 实例
func NewRoomService(repo *repository.Repository, logger *zap.Logger) RoomService {
	return &roomService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *roomService) Create(ctx context.Context, req *dto.CreateRoomRequest, callerID string) (*dto.RoomResponse, error) {
	name := strings.TrimSpace(req.Name)
	if err := s.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}

	room := &model.Room{
		Name:     name,
		Building: strings.TrimSpace(req.Building),
		Capacity: req.Capacity,
		IsActive: true,
	}
	room.CreatedBy = &callerID
	room.UpdatedBy = &callerID

	if err := s.repo.Room.Create(ctx, room); err != nil {
		s.logger.Error("创建教室失败", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	resp := toRoomResponse(room)
	return &resp, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *roomService) GetByID(ctx context.Context, id string) (*dto.RoomResponse, error) {
	room, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toRoomResponse(room)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *roomService) List(ctx context.Context, req *dto.RoomListRequest) ([]dto.RoomResponse, error) {
	rooms, err := s.repo.Room.List(ctx, req.IncludeInactive)
	if err != nil {
		s.logger.Error("列出教室失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.RoomResponse, 0, len(rooms))
	for i := range rooms {
		result = append(result, toRoomResponse(&rooms[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *roomService) Update(ctx context.Context, id string, req *dto.UpdateRoomRequest, callerID string) (*dto.RoomResponse, error) {
	room, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	renamed := false
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != room.Name {
			if err := s.ensureNameFree(ctx, name, room.RoomID); err != nil {
				return nil, err
			}
			renamed = true
		}
	}
	deactivated := req.IsActive != nil && !*req.IsActive && room.IsActive

	if renamed || deactivated {
		if err := s.ensureUnused(ctx, room.Name); err != nil {
			return nil, err
		}
	}

	if renamed {
		room.Name = strings.TrimSpace(*req.Name)
	}
	if req.Building != nil {
		room.Building = strings.TrimSpace(*req.Building)
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}
	if req.IsActive != nil {
		room.IsActive = *req.IsActive
	}
	room.UpdatedBy = &callerID

	if err := s.repo.Room.Update(ctx, room); err != nil {
		s.logger.Error("更新教室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := toRoomResponse(room)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *roomService) Delete(ctx context.Context, id string, callerID string) error {
	room, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ensureUnused(ctx, room.Name); err != nil {
		return err
	}

	if err := s.repo.Room.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除教室失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("教室已删除", zap.String("id", id), zap.String("name", room.Name), zap.String("operator", callerID))
	return nil
}

// ── 内部辅助方法 ──

func (s *roomService) get(ctx context.Context, id string) (*model.Room, error) {
	room, err := s.repo.Room.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("查询教室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return room, nil
}

// ensureNameFree selfID 为当前教室 ID，更新时允许与自身同名
func (s *roomService) ensureNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.repo.Room.GetByName(ctx, name)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil
		}
		s.logger.Error("查询教室名称失败", zap.String("name", name), zap.Error(err))
		return err
	}
	if existing.RoomID != selfID {
		return ErrRoomNameExists
	}
	return nil
}

func (s *roomService) ensureUnused(ctx context.Context, name string) error {
	_, total, err := s.repo.ClassSession.List(ctx, repository.ClassSessionFilter{Room: name, Limit: 1})
	if err != nil {
		s.logger.Error("查询教室引用失败", zap.String("name", name), zap.Error(err))
		return err
	}
	if total > 0 {
		return ErrRoomInUse
	}
	return nil
}

func toRoomResponse(room *model.Room) dto.RoomResponse {
	return dto.RoomResponse{
		ID:        room.RoomID,
		Name:      room.Name,
		Building:  room.Building,
		Capacity:  room.Capacity,
		IsActive:  room.IsActive,
		CreatedAt: room.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: room.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
