package api

// ErrorResponse 全域錯誤響應模型
// swagger:model api.ErrorResponse
type ErrorResponse struct {
	Detail string `json:"detail" example:"Could not validate credentials"`
}

// swagger:model api.MessageResponse
type MessageResponse struct {
	Message string `json:"message" example:"Welcome to the API"`
}

// swagger:model api.CountResponse
type CountResponse struct {
	Count int64 `json:"count" example:"42"`
}
