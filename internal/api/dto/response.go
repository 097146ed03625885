package dto

// Response 统一响应结构，Code 为 0 表示成功，否则为 HTTP 状态码
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse 仅用于文档
type ErrorResponse struct {
	Code    int    `json:"code" example:"404"`
	Message string `json:"message" example:"画家不存在"`
}
