package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	kratoserrors "github.com/go-kratos/kratos/v2/errors"
)

// Response 统一响应格式
type Response struct {
	Code    int         `json:"code"`
	Reason  string      `json:"reason,omitempty"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

// NoContent 无内容响应
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error 错误响应。服务层吐出的都是 kratos error，直接携带
// 状态码和 reason。
func Error(c *gin.Context, err error) {
	e := kratoserrors.FromError(err)
	c.JSON(int(e.Code), Response{
		Code:    int(e.Code),
		Reason:  e.Reason,
		Message: e.Message,
	})
}
