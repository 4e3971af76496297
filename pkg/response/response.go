package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess      = 0
	CodeParamError   = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeServerError  = 500
)

// 业务错误码
// 每一类领域错误一个码，调用方据此映射用户提示
const (
	CodeValidationError        = 1001 // 参数不合法
	CodeResourceNotFound       = 1002 // 捐赠/权益/账号不存在
	CodeInvalidStateTransition = 1003 // 状态机违例
	CodeNotAuthorized          = 1004 // 无审核权限
	CodeNotOwner               = 1005 // 非本人持有
	CodeInsufficientPoints     = 1006 // 积分不足
	CodeOutOfStock             = 1007 // 库存不足
	CodeBenefitDisabled        = 1008 // 权益已下架
	CodeDuplicateEmail         = 1009 // 邮箱已注册
	CodeCampaignClosed         = 1010 // 活动已结束
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}

func BusinessError(c *gin.Context, code int, message string) {
	Error(c, code, message)
}
