package serverutils

type ErrorBody struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Detail  string `json:"detail"`
}

func ErrorResponse(code string, detail string) ErrorBody {
	return ErrorBody{
		Success: false,
		Code:    code,
		Detail:  detail,
	}
}
