package response

import (
	"net/http"

	appErr "chuchuang-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

type Body struct {
	Code      int         `json:"code"`
	ErrorCode string      `json:"errorCode,omitempty"`
	Data      interface{} `json:"data"`
	Msg       string      `json:"msg"`
}

func Success(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data, "")
}

func SuccessWithMsg(c *gin.Context, data interface{}, msg string) {
	JSON(c, http.StatusOK, data, msg)
}

func Error(c *gin.Context, status int, msg string) {
	JSON(c, status, gin.H{}, msg)
}

// Fail maps a service error to its HTTP status and machine-readable code.
func Fail(c *gin.Context, err error) {
	code := appErr.CodeOf(err)
	c.JSON(code.HTTPStatus(), Body{
		Code:      code.HTTPStatus(),
		ErrorCode: string(code),
		Data:      gin.H{},
		Msg:       err.Error(),
	})
}

func JSON(c *gin.Context, status int, data interface{}, msg string) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(status, Body{
		Code: status,
		Data: data,
		Msg:  msg,
	})
}
