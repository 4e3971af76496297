package service

import (
	"errors"
)

// 业务校验 / 授权类错误
// 仓储层的错误（积分不足、库存不足等）定义在 repository 包
var (
	ErrInvalidQuantity      = errors.New("数量必须大于0")
	ErrInvalidAmount        = errors.New("积分变动值必须大于0")
	ErrInvalidDonationType  = errors.New("捐赠类型不合法")
	ErrInvalidDecision      = errors.New("审核决定不合法")
	ErrRejectReasonRequired = errors.New("驳回必须填写原因")
	ErrInvalidRole          = errors.New("角色不合法")
	ErrRoleNotAllowed       = errors.New("当前角色不允许该操作")
	ErrNotAuthorized        = errors.New("无权审核该活动的捐赠")
	ErrNotOwner             = errors.New("兑换券不属于当前用户")
	ErrAccountDisabled      = errors.New("账号已被禁用")
)
